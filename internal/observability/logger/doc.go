// Package logger es el logger zap del proceso más el logger por request.
//
// El global se arma con Init (una vez por comando del CLI). Cada request lleva en el
// contexto un logger derivado con request_id; el middleware de tenant le suma
// tenant_code y tenant_id con Enrich una vez que instala el hospital, así toda
// línea emitida dentro del handler queda atribuida al hospital activo.
//
//	log := logger.From(ctx)
//	log.Info("patient created", logger.Entity("patient"), logger.ID(p.ID))
//
// En tests se puede capturar la salida con Replace y zaptest/observer.
package logger

// Package domain define las entidades del hospital tal como se persisten en los stores.
//
// Las entidades del store compartido (Tenant, Account, AccessGrant, SystemConfig)
// son referenciadas desde los stores de cada hospital sólo por ID: no hay FK entre
// stores. Las entidades que referencian datos compartidos exponen References()
// para que la capa de acceso valide esas referencias al escribir.
package domain

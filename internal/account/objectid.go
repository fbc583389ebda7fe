package account

import (
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Documents in the users collection are keyed by 12-byte ObjectIDs. They are
// carried inside a version 8 UUID so the rest of the service keeps a single
// id type:
//
//	uuid[0:6]   = oid[0:6]
//	uuid[6]     = 0x80 (version 8)
//	uuid[7]     = oid[6]
//	uuid[8]     = 0x80 (RFC 9562 variant)
//	uuid[9:14]  = oid[7:12]
//	uuid[14:16] = 0
//
// The mapping is reversible, so GetByID can query the original _id.
func uuidFromObjectID(oid primitive.ObjectID) uuid.UUID {
	var u uuid.UUID
	copy(u[0:6], oid[0:6])
	u[6] = 0x80
	u[7] = oid[6]
	u[8] = 0x80
	copy(u[9:14], oid[7:12])
	return u
}

// objectIDFromUUID reverses uuidFromObjectID. ok is false for any UUID that
// was not produced by it, such as the random v4 ids of the other stores.
func objectIDFromUUID(u uuid.UUID) (oid primitive.ObjectID, ok bool) {
	if u[6] != 0x80 || u[8] != 0x80 || u[14] != 0 || u[15] != 0 {
		return oid, false
	}
	copy(oid[0:6], u[0:6])
	oid[6] = u[7]
	copy(oid[7:12], u[9:14])
	return oid, true
}

package domain

import "github.com/strideworks/fittrack/pkg/idx"

// Owned is implemented by child entities that carry a back-pointer to
// their owning user. The registrar is generic over it.
type Owned interface {
	Key() idx.ID
	Owner() idx.ID
}

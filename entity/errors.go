package entity

import (
	"fmt"

	e "github.com/tutumagi/mcentity/errors"
)

// ErrUnknownEntityCode is reported when a packet needs an entity that was never spawned
const ErrUnknownEntityCode = "Entity_001"

// ErrUnknownEntity 找不到该实体
var ErrUnknownEntity = func(id int32) *e.Error {
	return e.NewError(
		fmt.Errorf("entity %d is not tracked", id),
		ErrUnknownEntityCode,
		map[string]string{"entityId": fmt.Sprint(id)},
	)
}

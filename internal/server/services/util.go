package services

import (
	"errors"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
)

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}

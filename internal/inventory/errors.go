package inventory

import "errors"

var ErrRecordNotFound = errors.New("inventory record not found")

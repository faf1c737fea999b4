package validator

import "github.com/garrettladley/csverify/internal/xerrors"

type Validator interface {
	// Validate returns a message per invalid field, or nil.
	Validate() map[string]string
}

func Validate(v Validator, opts ...xerrors.Option) *xerrors.Error {
	if fields := v.Validate(); len(fields) > 0 {
		return xerrors.Validation(fields, opts...)
	}
	return nil
}

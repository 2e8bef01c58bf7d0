package errors

import (
	"context"
	"errors"
	"io/fs"

	"github.com/matzehuels/sadm/pkg/adm"
	"github.com/matzehuels/sadm/pkg/adm/route"
	"github.com/matzehuels/sadm/pkg/bw64"
	"github.com/matzehuels/sadm/pkg/cache"
	"github.com/matzehuels/sadm/pkg/combine"
	pkgio "github.com/matzehuels/sadm/pkg/io"
	"github.com/matzehuels/sadm/pkg/store"
)

var sentinels = []struct {
	err  error
	code Code
}{
	{adm.ErrInvalidID, ErrCodeInvalidID},
	{adm.ErrInvalidTimecode, ErrCodeInvalidTimecode},
	{adm.ErrUnsupportedTimecode, ErrCodeUnsupported},
	{adm.ErrInvalidReference, ErrCodeInvalidReference},
	{adm.ErrNotChannelFormat, ErrCodeInvalidReference},
	{adm.ErrUnresolvedReference, ErrCodeUnresolvedReference},
	{adm.ErrDuplicateID, ErrCodeDuplicateID},
	{route.ErrCycle, ErrCodeCycle},
	{combine.ErrTransportMismatch, ErrCodeTransportMismatch},
	{combine.ErrNilFrame, ErrCodeInvalidInput},
	{pkgio.ErrNoFormat, ErrCodeInvalidFormat},
	{pkgio.ErrNoFrame, ErrCodeInvalidFormat},
	{bw64.ErrNotBW64, ErrCodeInvalidFormat},
	{bw64.ErrMissingChunk, ErrCodeInvalidFormat},
	{bw64.ErrMalformedChunk, ErrCodeInvalidFormat},
	{cache.ErrNetwork, ErrCodeNetwork},
	{store.ErrRunNotFound, ErrCodeNotFound},
	{fs.ErrNotExist, ErrCodeFileNotFound},
}

// Classify returns err as an *Error. Errors that already carry a code are
// returned unchanged; sentinel errors of the sadm packages get their
// matching code; anything else becomes INTERNAL_ERROR. The message is the
// original error text. Classify returns nil for nil and leaves context
// cancellation untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return Wrap(s.code, err, "%s", err.Error())
		}
	}
	return Wrap(ErrCodeInternal, err, "%s", err.Error())
}

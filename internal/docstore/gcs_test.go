package docstore

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/datakeep/apiserver/internal/store"
)

func TestPreconditionToConflict(t *testing.T) {
	precondition := &googleapi.Error{Code: http.StatusPreconditionFailed}
	assert.ErrorIs(t, preconditionToConflict(precondition), store.ErrConflict)
	assert.ErrorIs(t, preconditionToConflict(fmt.Errorf("write: %w", precondition)), store.ErrConflict)

	forbidden := &googleapi.Error{Code: http.StatusForbidden}
	assert.Equal(t, error(forbidden), preconditionToConflict(forbidden))

	plain := errors.New("network down")
	assert.Equal(t, plain, preconditionToConflict(plain))
	assert.NoError(t, preconditionToConflict(nil))
}

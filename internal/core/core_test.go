// AngelaMos | 2026
// core_test.go

package core

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Abc12345!")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("Abc12345!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("abc12345!", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("x", "not-a-hash")
	assert.Error(t, err)
}

func TestVerifyPasswordTimingSafe_MissingHash(t *testing.T) {
	ok, rehash, err := VerifyPasswordTimingSafe("anything", nil)

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rehash)
}

func TestVerifyPasswordWithRehash_UpgradesOldParams(t *testing.T) {
	current, err := HashPassword("Abc12345!")
	require.NoError(t, err)

	ok, upgraded, err := VerifyPasswordWithRehash("Abc12345!", current)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, upgraded)

	old := strings.Replace(current, "t=1,", "t=2,", 1)
	old = strings.Replace(old, "$"+strings.Split(current, "$")[5], "$"+base64.RawStdEncoding.EncodeToString(
		argonParams{memory: 64 * 1024, time: 2, threads: 4, keyLen: 32}.derive("Abc12345!", saltOf(t, current)),
	), 1)

	ok, upgraded, err = VerifyPasswordWithRehash("Abc12345!", old)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, upgraded, "t=1,")
}

func saltOf(t *testing.T, encoded string) []byte {
	t.Helper()
	salt, err := base64.RawStdEncoding.DecodeString(strings.Split(encoded, "$")[4])
	require.NoError(t, err)
	return salt
}

func TestParseHash_Malformed(t *testing.T) {
	for _, h := range []string{
		"",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$a2V5",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$a2V5",
		"$argon2id$v=19$m=x$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$",
	} {
		_, err := VerifyPassword("x", h)
		assert.ErrorIs(t, err, errMalformedHash, h)
	}
}

func TestNewSessionToken(t *testing.T) {
	token, digest, err := NewSessionToken()
	require.NoError(t, err)

	assert.Len(t, token, 43)
	assert.Equal(t, HashToken(token), digest)
	assert.NotEqual(t, HashToken(token+"x"), digest)

	other, _, err := NewSessionToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(NewID()))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("12"))
}

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(ErrNotFound))
}

func TestJSONError(t *testing.T) {
	t.Run("app error keeps its status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		JSONError(rec, fmt.Errorf("wrapped: %w", ValidationError("name is required")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Equal(t, "name is required", body.Error.Message)
	})

	t.Run("plain error is internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		JSONError(rec, ErrConflict)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestPaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{1, 2}, 2, 10, 21)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, &Pagination{Page: 2, PageSize: 10, Total: 21, TotalPages: 3}, body.Meta)
}

func TestAppErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("ctx: %w", ForbiddenError(""))

	assert.ErrorIs(t, err, ErrForbidden)
	assert.True(t, IsAppError(err))
	assert.Contains(t, err.Error(), "access denied")
}

func TestFormatValidationError(t *testing.T) {
	type request struct {
		FolderID string `validate:"required"`
	}

	err := validator.New().Struct(request{})
	require.Error(t, err)

	assert.Contains(t, FormatValidationError(err), "folder_id is required")
}

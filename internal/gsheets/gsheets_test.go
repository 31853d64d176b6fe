package gsheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

func TestClient_UpdateValues(t *testing.T) {
	var gotPath, gotOption string
	var gotBody struct {
		Values [][]any `json:"values"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		gotOption = r.URL.Query().Get("valueInputOption")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-id","updatedRows":1}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), "sheet-id",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	err = c.UpdateValues(context.Background(), "'GTR 3'!A2:F2",
		[][]any{{1, "Bathurst Circuit - Mount Panorama", "120,500", "121,000", 3, 10}})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-id/values/"), gotPath)
	assert.Equal(t, "USER_ENTERED", gotOption)
	require.Len(t, gotBody.Values, 1)
	assert.Equal(t, "120,500", gotBody.Values[0][2])
	assert.EqualValues(t, 3, gotBody.Values[0][4])
}

func TestNew_RequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "", option.WithoutAuthentication())
	assert.Error(t, err)
}

func TestToken_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour).Round(time.Second)}

	require.NoError(t, SaveToken(path, tok))
	got, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessToken)
	assert.Equal(t, "r", got.RefreshToken)
	assert.True(t, tok.Expiry.Equal(got.Expiry))

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

type sequenceSource struct {
	tokens []string
	i      int
}

func (s *sequenceSource) Token() (*oauth2.Token, error) {
	tok := &oauth2.Token{AccessToken: s.tokens[min(s.i, len(s.tokens)-1)], RefreshToken: "r"}
	s.i++
	return tok, nil
}

func TestPersistingSource_SavesRefreshedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	ps := &persistingSource{src: &sequenceSource{tokens: []string{"old", "new"}}, path: path, last: "old"}

	_, err := ps.Token()
	require.NoError(t, err)
	_, err = LoadToken(path)
	assert.Error(t, err, "unchanged token is not written")

	tok, err := ps.Token()
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)
	saved, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "new", saved.AccessToken)
}

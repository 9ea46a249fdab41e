package hooks

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDecode_PostSaved(t *testing.T) {
	event, err := Decode(KindPostSaved, []byte(`{"post_id":42,"title":"Hello","status":"draft","update":true}`))
	require.NoError(t, err)
	saved, ok := event.(PostSavedEvent)
	require.True(t, ok)
	require.Equal(t, int64(42), saved.PostID)
	require.Equal(t, "draft", saved.Status)
	require.True(t, saved.Update)
	require.False(t, saved.Autosave)
}

func TestDecode_Login(t *testing.T) {
	id := uuid.New()
	event, err := Decode("LOGIN", []byte(`{"actor_id":"`+id.String()+`","roles":["editor"]}`))
	require.NoError(t, err)
	login, ok := event.(LoginEvent)
	require.True(t, ok)
	require.Equal(t, id, login.Actor.ID)
	require.Equal(t, []string{"editor"}, login.Actor.Roles)
}

func TestDecode_UpgradeCompleted(t *testing.T) {
	event, err := Decode(KindUpgradeCompleted, []byte(`{"type":"plugin","action":"install","plugins":["a/a.php","b/b.php"]}`))
	require.NoError(t, err)
	upgrade := event.(UpgradeCompletedEvent)
	require.Equal(t, []string{"a/a.php", "b/b.php"}, upgrade.Plugins)
}

func TestDecode_Rejections(t *testing.T) {
	_, err := Decode(KindAdminInit, nil)
	require.True(t, isInvalidEvent(err))

	_, err = Decode(KindPostSaved, []byte(`{"post_id":"nope"}`))
	require.True(t, isInvalidEvent(err))

	_, err = Decode(KindOptionUpdated, []byte(`{"new_value":1}`))
	require.True(t, isInvalidEvent(err))
}

func isInvalidEvent(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == types.TextCodeInvalidEvent
}

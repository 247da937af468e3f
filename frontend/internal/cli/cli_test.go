package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/itchan-dev/discussion/frontend/internal/apitest"
	"github.com/itchan-dev/discussion/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ts        *apitest.TestServer
	configDir string
}

// newFixture writes a config folder pointing at a fake forum, signed in as viewer.
func newFixture(t *testing.T, viewer domain.Viewer) *fixture {
	t.Helper()
	ts := apitest.Start(t, apitest.Options{})
	dir := t.TempDir()

	public := fmt.Sprintf(`api:
  threads_url: %s
  replies_url: %s
prefs:
  backend: sqlite
  path: %s
log:
  level: error
`, ts.ThreadsURL, ts.RepliesURL, filepath.Join(dir, "prefs.db"))
	private := fmt.Sprintf("csrf_token: %s\n", ts.CSRFToken())
	if viewer.Authenticated {
		private += fmt.Sprintf("session_token: %s\njwt_key: test-jwt-key\n", ts.SessionFor(viewer))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.yaml"), []byte(public), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "private.yaml"), []byte(private), 0o600))
	return &fixture{ts: ts, configDir: dir}
}

func (f *fixture) run(args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", f.configDir}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

var alice = domain.Viewer{Authenticated: true, Username: "alice"}

func TestListCommand(t *testing.T) {
	f := newFixture(t, domain.Viewer{})
	store := f.ts.Store()
	store.AddThread("bob", "Gravity", "falls", "Science", nil)
	store.AddThread("bob", "Sonnets", "rhymes", "English", nil)

	out, _, err := f.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "Gravity")
	assert.Contains(t, out, "Sonnets")

	out, _, err = f.run("list", "--category", "Science", "--format", "json")
	require.NoError(t, err)
	var got stateJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, domain.ViewList, got.View)
	require.Len(t, got.Threads, 1)
	assert.Equal(t, "Gravity", got.Threads[0].Title)

	_, _, err = f.run("list", "--category", "Cooking")
	assert.Error(t, err)
	_, _, err = f.run("list", "--format", "yaml")
	assert.Error(t, err)
}

func TestShowCommand(t *testing.T) {
	f := newFixture(t, domain.Viewer{})
	thread := f.ts.Store().AddThread("bob", "Hello", "*hi*", "General", nil)
	_, err := f.ts.Store().AddReply(thread.Id, "carol", "welcome", nil)
	require.NoError(t, err)

	out, _, err := f.run("show", fmt.Sprint(thread.Id), "--format", "html")
	require.NoError(t, err)
	assert.Contains(t, out, `class="thread-detail"`)
	assert.Contains(t, out, "<em>hi</em>")
	assert.Contains(t, out, "1 reply")

	_, _, err = f.run("show", "999")
	assert.Error(t, err)
	_, _, err = f.run("show", "abc")
	assert.Error(t, err)
}

func TestNewAndReplyCommands(t *testing.T) {
	f := newFixture(t, alice)

	out, stderr, err := f.run("new", "--title", "From the shell", "--body", "text", "--category", "Maths")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Thread published!")
	assert.Contains(t, out, "From the shell")

	threads := f.ts.Store().Threads(domain.CategoryAll, domain.SortRecent)
	require.Len(t, threads, 1)
	id := fmt.Sprint(threads[0].Id)

	image := filepath.Join(t.TempDir(), "dot.png")
	require.NoError(t, os.WriteFile(image, pngBytes, 0o600))
	out, stderr, err = f.run("reply", id, "--body", "an answer", "--image", image)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Reply posted!")
	assert.Contains(t, out, "an answer")

	replies, err := f.ts.Store().Replies(threads[0].Id)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.True(t, replies[0].HasImage())

	_, stderr, err = f.run("new", "--title", "", "--body", "text")
	assert.NoError(t, err, "a warning is not a failure")
	assert.Contains(t, stderr, "Please fill in a title and body.")
}

func TestLikeCommandRemembersLikes(t *testing.T) {
	f := newFixture(t, alice)
	thread := f.ts.Store().AddThread("bob", "Likeable", "b", "General", nil)
	id := fmt.Sprint(thread.Id)

	_, _, err := f.run("like", "thread", id)
	require.NoError(t, err)

	_, stderr, err := f.run("like", "thread", id)
	require.NoError(t, err)
	assert.Contains(t, stderr, "You already liked this thread.")

	stored, err := f.ts.Store().Thread(thread.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Likes)
}

func TestLikeCommandAnonymous(t *testing.T) {
	f := newFixture(t, domain.Viewer{})
	thread := f.ts.Store().AddThread("bob", "Likeable", "b", "General", nil)

	_, stderr, err := f.run("like", "thread", fmt.Sprint(thread.Id))
	require.NoError(t, err)
	assert.Contains(t, stderr, "Please log in to like threads.")
	assert.Zero(t, f.ts.CallCount("POST", apitest.APIPrefix))
}

func TestEditAndDeleteCommands(t *testing.T) {
	f := newFixture(t, alice)
	store := f.ts.Store()
	thread := store.AddThread("alice", "Mine", "b", "General", nil)
	reply, err := store.AddReply(thread.Id, "alice", "typo", nil)
	require.NoError(t, err)
	tid, rid := fmt.Sprint(thread.Id), fmt.Sprint(reply.Id)

	_, _, err = f.run("edit", "reply", tid, rid, "--body", "fixed")
	require.NoError(t, err)
	got, err := store.Reply(reply.Id)
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.Body)

	_, _, err = f.run("edit", "thread", tid, "--title", "Renamed")
	require.NoError(t, err)
	renamed, err := store.Thread(thread.Id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Title)
	assert.Equal(t, "b", renamed.Body)

	_, _, err = f.run("delete", "reply", tid, rid)
	require.NoError(t, err)
	_, err = store.Reply(reply.Id)
	assert.Error(t, err)

	_, _, err = f.run("delete", "thread", tid)
	require.NoError(t, err)
	_, err = store.Thread(thread.Id)
	assert.Error(t, err)
}

func TestEditCommandNeedsOwnership(t *testing.T) {
	f := newFixture(t, alice)
	thread := f.ts.Store().AddThread("bob", "Not mine", "b", "General", nil)

	_, _, err := f.run("edit", "thread", fmt.Sprint(thread.Id), "--title", "x")
	assert.ErrorContains(t, err, "alice cannot edit")
	_, _, err = f.run("delete", "thread", fmt.Sprint(thread.Id))
	assert.ErrorContains(t, err, "alice cannot delete")
}

// pngBytes is a 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

package syncer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/loyalty-club/internal/model"
	"github.com/sakif/loyalty-club/internal/repository/record"
	"github.com/sakif/loyalty-club/internal/store"
)

func newTestRepos(t *testing.T) *record.Repositories {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return record.New(s)
}

func newReconciler(t *testing.T, baseURL string, repos *record.Repositories) *Reconciler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(baseURL, time.Second, repos.Users, repos.Promos, repos.Meta, logger)
}

// snapshotServer serves the two snapshot documents the way the venue's static
// host would.
func snapshotServer(t *testing.T, users []model.User, promos []model.Promotion) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/usuarios.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(users)
	})
	mux.HandleFunc("/promociones.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(promos)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// =========================================================================
// MERGE RULE
// =========================================================================

func TestMergeUsers(t *testing.T) {
	t1 := ts("2024-01-01T00:00:00Z")
	t2 := ts("2024-02-01T00:00:00Z")

	tests := []struct {
		name      string
		remote    []model.User
		local     []model.User
		wantVisit map[string]int // id → expected visits in the merge result
	}{
		{
			name:      "local strictly newer wins",
			remote:    []model.User{{ID: "a", Visits: 1, UpdatedAt: t1}},
			local:     []model.User{{ID: "a", Visits: 5, UpdatedAt: t2}},
			wantVisit: map[string]int{"a": 5},
		},
		{
			name:      "remote newer keeps baseline",
			remote:    []model.User{{ID: "a", Visits: 1, UpdatedAt: t2}},
			local:     []model.User{{ID: "a", Visits: 5, UpdatedAt: t1}},
			wantVisit: map[string]int{"a": 1},
		},
		{
			name:      "equal timestamps keep baseline",
			remote:    []model.User{{ID: "a", Visits: 1, UpdatedAt: t1}},
			local:     []model.User{{ID: "a", Visits: 5, UpdatedAt: t1}},
			wantVisit: map[string]int{"a": 1},
		},
		{
			name:      "both timestamps missing keeps baseline",
			remote:    []model.User{{ID: "a", Visits: 1}},
			local:     []model.User{{ID: "a", Visits: 5}},
			wantVisit: map[string]int{"a": 1},
		},
		{
			name:      "local-only id always kept",
			remote:    []model.User{{ID: "a", Visits: 1, UpdatedAt: t1}},
			local:     []model.User{{ID: "b", Visits: 3}},
			wantVisit: map[string]int{"a": 1, "b": 3},
		},
		{
			name:      "remote-only id kept",
			remote:    []model.User{{ID: "a", Visits: 1}, {ID: "c", Visits: 9}},
			local:     nil,
			wantVisit: map[string]int{"a": 1, "c": 9},
		},
		{
			name:      "local without timestamp loses to stamped baseline",
			remote:    []model.User{{ID: "a", Visits: 1, UpdatedAt: t1}},
			local:     []model.User{{ID: "a", Visits: 5}},
			wantVisit: map[string]int{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := mergeUsers(tt.remote, tt.local)
			require.Len(t, merged, len(tt.wantVisit))
			for _, u := range merged {
				want, ok := tt.wantVisit[u.ID]
				require.True(t, ok, "unexpected id %q in merge result", u.ID)
				assert.Equal(t, want, u.Visits, "visits for %q", u.ID)
			}
		})
	}
}

func TestMergeUsers_DeterministicOrder(t *testing.T) {
	remote := []model.User{{ID: "c"}, {ID: "a"}}
	local := []model.User{{ID: "b"}}

	merged := mergeUsers(remote, local)
	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].ID)
	assert.Equal(t, "b", merged[1].ID)
	assert.Equal(t, "c", merged[2].ID)
}

// =========================================================================
// RUN — ONLINE
// =========================================================================

func TestRun_MergesAndPersists(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	// Local replica: one offline-created member, one stale copy of "a".
	require.NoError(t, repos.Users.Put(ctx, &model.User{ID: "a", Name: "Ana", Visits: 2, UpdatedAt: ts("2024-01-01T00:00:00Z")}))
	require.NoError(t, repos.Users.Put(ctx, &model.User{ID: "local-only", Name: "Luz", Visits: 4}))

	srv := snapshotServer(t,
		[]model.User{{ID: "a", Name: "Ana", Visits: 10, UpdatedAt: ts("2024-03-01T00:00:00Z")}},
		[]model.Promotion{{ID: "p1", Title: "Café gratis", VisitsRequired: 5}},
	)

	r := newReconciler(t, srv.URL, repos)
	online, err := r.Run(ctx)
	require.NoError(t, err)
	assert.True(t, online)

	// Remote "a" was newer → baseline kept.
	a, err := repos.Users.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 10, a.Visits)

	// Offline-created member survived the full-table replace.
	lo, err := repos.Users.GetByID(ctx, "local-only")
	require.NoError(t, err)
	assert.Equal(t, 4, lo.Visits)

	// Promos stored verbatim.
	promos, err := repos.Promos.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 1)
	assert.Equal(t, "p1", promos[0].ID)

	// lastSync recorded.
	at, err := repos.Meta.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, at.IsZero())
}

func TestRun_LocalNewerEditSurvives(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	// A local user the remote doesn't know about gets merged in,
	// visits intact.
	require.NoError(t, repos.Users.Put(ctx, &model.User{ID: "u1", Visits: 3, UpdatedAt: ts("2024-01-01T00:00:00Z")}))

	srv := snapshotServer(t, []model.User{}, []model.Promotion{{ID: "p1", VisitsRequired: 3}})

	r := newReconciler(t, srv.URL, repos)
	online, err := r.Run(ctx)
	require.NoError(t, err)
	require.True(t, online)

	u1, err := repos.Users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, u1.Visits)
}

// =========================================================================
// RUN — OFFLINE
// =========================================================================

func TestRun_UnreachableRemoteLeavesLocalUntouched(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Users.Put(ctx, &model.User{ID: "u1", Name: "Ana", Visits: 3}))
	require.NoError(t, repos.Promos.ReplaceAll(ctx, []model.Promotion{{ID: "p1", VisitsRequired: 2}}))
	require.NoError(t, repos.Pending.Append(ctx, &model.PendingAction{Kind: model.ActionAddVisit, UserID: "u1", Timestamp: time.Now()}))

	// A port nothing listens on.
	r := newReconciler(t, "http://127.0.0.1:1", repos)
	online, err := r.Run(ctx)
	require.NoError(t, err, "offline is a mode, not an error")
	assert.False(t, online)

	users, err := repos.Users.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 3, users[0].Visits)

	promos, err := repos.Promos.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, promos, 1)

	n, err := repos.Pending.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	at, err := repos.Meta.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, at.IsZero(), "lastSync must not be stamped on the offline path")
}

func TestRun_ServerErrorIsOffline(t *testing.T) {
	repos := newTestRepos(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	r := newReconciler(t, srv.URL, repos)
	online, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, online)
}

func TestRun_OneDocumentMissingIsOffline(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, repos.Users.Put(ctx, &model.User{ID: "u1", Visits: 7}))

	// usuarios.json resolves, promociones.json 404s — whole fetch is offline.
	mux := http.NewServeMux()
	mux.HandleFunc("/usuarios.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.User{{ID: "u1", Visits: 0, UpdatedAt: time.Now()}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	r := newReconciler(t, srv.URL, repos)
	online, err := r.Run(ctx)
	require.NoError(t, err)
	assert.False(t, online)

	u, err := repos.Users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, u.Visits, "partial snapshot must not be applied")
}

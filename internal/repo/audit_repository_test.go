package repo

import (
	"KeyVault/internal/model"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func mkEntry(t *testing.T, userID *int64, userName, action, ip string, at time.Time, ok bool) *model.AuditEntry {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	var name *string
	if userName != "" {
		name = &userName
	}
	return &model.AuditEntry{
		ID:        id.String(),
		UserID:    userID,
		UserName:  name,
		Action:    action,
		Timestamp: at,
		IPAddress: ip,
		UserAgent: "test",
		Success:   ok,
	}
}

func TestAuditRepository_AppendAndListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	r := NewAuditRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, r.Append(ctx, mkEntry(t, ptr(int64(1)), "admin", "login_success", "10.0.0.1", base, true)))
	require.NoError(t, r.Append(ctx, mkEntry(t, ptr(int64(2)), "bob", "view_key", "10.0.0.2", base.Add(time.Minute), true)))
	require.NoError(t, r.Append(ctx, mkEntry(t, nil, "ghost", "login_attempt", "10.0.0.3", base.Add(2*time.Minute), false)))

	all, err := r.List(ctx, AuditQuery{Limit: 100})
	require.NoError(t, err)
	if assert.Len(t, all, 3) {
		assert.Equal(t, "login_attempt", all[0].Action)
		assert.Nil(t, all[0].UserID)
		assert.False(t, all[0].Success)
		assert.Equal(t, "login_success", all[2].Action)
	}
}

func TestAuditRepository_ScopeAndFilters(t *testing.T) {
	db := newTestDB(t)
	r := NewAuditRepository(db)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, r.Append(ctx, mkEntry(t, ptr(int64(1)), "admin", "list_users", "192.168.1.10", base, true)))
	require.NoError(t, r.Append(ctx, mkEntry(t, ptr(int64(2)), "bob", "view_key", "10.0.0.2", base.Add(time.Second), true)))
	require.NoError(t, r.Append(ctx, mkEntry(t, ptr(int64(2)), "bob", "add_key", "10.0.0.2", base.Add(2*time.Second), true)))

	own, err := r.List(ctx, AuditQuery{ActorID: ptr(int64(2)), Limit: 50})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	byAction, err := r.List(ctx, AuditQuery{Action: "key"})
	require.NoError(t, err)
	assert.Len(t, byAction, 2)

	byName, err := r.List(ctx, AuditQuery{UserName: "adm"})
	require.NoError(t, err)
	if assert.Len(t, byName, 1) {
		assert.Equal(t, "list_users", byName[0].Action)
	}

	byIP, err := r.List(ctx, AuditQuery{IPAddress: "192.168"})
	require.NoError(t, err)
	assert.Len(t, byIP, 1)

	limited, err := r.List(ctx, AuditQuery{Limit: 1})
	require.NoError(t, err)
	if assert.Len(t, limited, 1) {
		assert.Equal(t, "add_key", limited[0].Action)
	}
}

func TestAuditRepository_FilterWildcardsAreLiteral(t *testing.T) {
	db := newTestDB(t)
	r := NewAuditRepository(db)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, r.Append(ctx, mkEntry(t, nil, "a_b", "login_attempt", "10.0.0.1", base, false)))
	require.NoError(t, r.Append(ctx, mkEntry(t, nil, "axb", "login_attempt", "10.0.0.1", base.Add(time.Second), false)))
	require.NoError(t, r.Append(ctx, mkEntry(t, nil, "100%", "login_attempt", "10.0.0.1", base.Add(2*time.Second), false)))
	require.NoError(t, r.Append(ctx, mkEntry(t, nil, `back\slash`, "login_attempt", "10.0.0.1", base.Add(3*time.Second), false)))

	tests := []struct {
		filter string
		want   []string
	}{
		{"a_b", []string{"a_b"}},
		{"_", []string{"a_b"}},
		{"%", []string{"100%"}},
		{`\`, []string{`back\slash`}},
		{"x", []string{"axb"}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, err := r.List(ctx, AuditQuery{UserName: tt.filter})
			require.NoError(t, err)
			var names []string
			for _, e := range got {
				names = append(names, *e.UserName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

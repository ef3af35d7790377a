package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"access-console/internal/models"
	"access-console/internal/upstream"
)

const candidatesJSON = `{"data":[
	{"EMAIL":"a@example.com","STATUS":1,"ROLE_ID":7},
	{"EMAIL":"b@example.com","STATUS":0,"ROLE_ID":""},
	{"EMAIL":"c@example.com","STATUS":1,"ROLE_ID":null}
]}`

func TestShareAccessOpen(t *testing.T) {
	f := newFixture(t)
	f.up.reply(upstream.PathShareAccess, candidatesJSON)

	draft, err := f.share.Open(context.Background(), f.sess, acme)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "c@example.com"}, draft.Selected)

	var ref models.CompanyRef
	require.NoError(t, json.Unmarshal(f.up.sent(upstream.PathShareAccess)[0], &ref))
	assert.Equal(t, models.CompanyRef{TallylocID: "1", Company: "Acme Traders", GUID: "g1"}, ref)

	_, err = f.share.Open(context.Background(), f.sess, models.CompanyKey{GUID: "nope", TallylocID: "1"})
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestShareAccessSubmitReconcilesRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.up.reply(upstream.PathShareAccess, candidatesJSON)
	f.up.reply(upstream.PathShareAccessSubmit, `{"success":true,"activated":1,"deactivated":0,"created":0,"newAccounts":0}`)

	_, err := f.share.Open(ctx, f.sess, acme)
	require.NoError(t, err)
	_, err = f.share.Toggle(ctx, f.sess, "B@example.com")
	require.NoError(t, err)

	summary, _, err := f.share.Submit(ctx, f.sess, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Granted)
	assert.False(t, summary.NoChanges)

	var req models.ShareAccessRequest
	require.NoError(t, json.Unmarshal(f.up.sent(upstream.PathShareAccessSubmit)[0], &req))
	assert.Equal(t, "g1", req.GUID)
	assert.Equal(t, []models.ShareAccessEntry{
		{Email: "a@example.com", RoleID: 7},
		{Email: "b@example.com", RoleID: 5},
		{Email: "c@example.com", RoleID: 5},
	}, req.Emails)
	assert.Equal(t, []string{models.ActionShareAccess}, f.audit.actions())
}

func TestShareAccessSubmitNoChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.up.reply(upstream.PathShareAccess, candidatesJSON)
	f.up.reply(upstream.PathShareAccessSubmit, `{"success":true}`)

	_, err := f.share.Open(ctx, f.sess, acme)
	require.NoError(t, err)
	summary, draft, err := f.share.Submit(ctx, f.sess, 5)
	require.NoError(t, err)
	assert.True(t, summary.NoChanges)
	assert.Equal(t, "No changes were made", summary.Message)
	assert.NotNil(t, draft)
}

func TestShareAccessSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.share.Submit(ctx, f.sess, 5)
	assert.True(t, errors.Is(err, errors.NotFound), "no open draft")

	f.up.reply(upstream.PathShareAccess, candidatesJSON)
	_, err = f.share.Open(ctx, f.sess, acme)
	require.NoError(t, err)

	_, _, err = f.share.Submit(ctx, f.sess, 0)
	assert.EqualError(t, err, "Please select a role")
	assert.Empty(t, f.up.sent(upstream.PathShareAccessSubmit))
}

func TestShareAccessSubmitUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.up.reply(upstream.PathShareAccess, candidatesJSON)
	f.up.reply(upstream.PathShareAccessSubmit, `{"success":false,"message":"Role not allowed"}`)

	_, err := f.share.Open(ctx, f.sess, acme)
	require.NoError(t, err)
	_, _, err = f.share.Submit(ctx, f.sess, 5)

	var upErr *upstream.Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "Role not allowed", upErr.Message)
	assert.Empty(t, f.audit.actions())
}

func TestShareAccessSubmitRefreshFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.up.reply(upstream.PathShareAccess, candidatesJSON)
	f.up.reply(upstream.PathShareAccessSubmit, `{"success":true,"deactivated":2}`)

	opened, err := f.share.Open(ctx, f.sess, acme)
	require.NoError(t, err)

	f.up.fail(upstream.PathShareAccess, http.StatusServiceUnavailable, "Tally offline")
	summary, draft, err := f.share.Submit(ctx, f.sess, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Deactivated)
	assert.Equal(t, "Error fetching users: Tally offline", summary.RefreshError)
	assert.Equal(t, opened.Selected, draft.Selected)
}

func TestShareAccessSelectAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.up.reply(upstream.PathShareAccess, candidatesJSON)
	_, err := f.share.Open(ctx, f.sess, acme)
	require.NoError(t, err)

	draft, err := f.share.SelectAll(ctx, f.sess)
	require.NoError(t, err)
	assert.Len(t, draft.Selected, 3)

	draft, err = f.share.SelectAll(ctx, f.sess)
	require.NoError(t, err)
	assert.Empty(t, draft.Selected)

	require.NoError(t, f.share.Close(ctx, f.sess))
	_, err = f.share.Draft(ctx, f.sess)
	assert.True(t, errors.Is(err, errors.NotFound))
}

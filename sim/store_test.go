package sim

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/indcloud/console/data"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	Seed(s)
	return s
}

func TestStoreDeleteRestoreIdentical(t *testing.T) {
	s := seeded(t)

	before := s.Devices()
	victim := before[3]

	resp, err := s.DeleteDevice(victim.ID, "test")
	require.NoError(t, err)
	require.Equal(t, data.EntityDevice, resp.EntityType)
	require.Equal(t, victim.Name, resp.EntityName)
	require.Len(t, s.Devices(), len(before)-1)

	_, err = s.Device(victim.ID)
	require.ErrorIs(t, err, data.ErrNotFound)

	trash := s.Trash()
	require.Len(t, trash, 1)
	require.Equal(t, resp.TrashID, trash[0].ID)

	require.NoError(t, s.Restore(resp.TrashID))

	if diff := cmp.Diff(before, s.Devices()); diff != "" {
		t.Fatal("devices changed after restore: ", diff)
	}
	require.Empty(t, s.Trash())
}

func TestStoreRestoreExpired(t *testing.T) {
	s := seeded(t)
	now := time.Now()
	s.SetClock(func() time.Time { return now })

	o := s.Organizations()[0]
	resp, err := s.DeleteOrganization(o.ID, "")
	require.NoError(t, err)

	now = now.Add(TrashRetention + time.Hour)
	require.Empty(t, s.Trash())
	require.ErrorIs(t, s.Restore(resp.TrashID), ErrExpired)
	require.ErrorIs(t, s.Restore(resp.TrashID), data.ErrNotFound)
}

func TestStoreOrganizationDeviceCount(t *testing.T) {
	s := seeded(t)
	total := 0
	for _, o := range s.Organizations() {
		total += o.DeviceCount
	}
	require.Equal(t, len(s.Devices()), total)

	o, err := s.UpdateOrganization(1, data.OrganizationUpdate{Name: "Acme Corp"})
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", o.Name)

	for _, d := range s.Devices() {
		if d.OrganizationID == 1 {
			require.Equal(t, "Acme Corp", d.OrganizationName)
		}
	}

	_, err = s.UpdateOrganization(1, data.OrganizationUpdate{Name: " "})
	require.Error(t, err)
}

func TestStoreIssues(t *testing.T) {
	s := seeded(t)

	require.Len(t, s.Issues(""), 3)
	require.Len(t, s.Issues(data.IssueSubmitted), 1)

	i, err := s.SetIssueStatus(1, data.IssueClosed)
	require.NoError(t, err)
	require.Equal(t, data.IssueClosed, i.Status)
	require.Equal(t, 1, i.CommentCount)

	_, err = s.SetIssueStatus(1, "BOGUS")
	require.Error(t, err)

	_, err = s.AddComment(99, "a", data.NewIssueComment{Message: "x"})
	require.ErrorIs(t, err, data.ErrNotFound)

	c, err := s.AddComment(2, "ops", data.NewIssueComment{Message: "looking", Internal: true})
	require.NoError(t, err)
	require.Equal(t, int64(2), c.IssueID)

	comments, err := s.Comments(2)
	require.NoError(t, err)
	require.Len(t, comments, 1)
}

func TestStoreSms(t *testing.T) {
	s := seeded(t)
	require.Equal(t, 2, s.SmsSettings().CurrentMonthCount)

	_, err := s.UpdateSmsSettings(data.SmsSettingsUpdate{BudgetThresholdPercentage: 120})
	require.Error(t, err)

	set, err := s.UpdateSmsSettings(data.SmsSettingsUpdate{
		Enabled: true, DailyLimit: 50, MonthlyBudget: 10, BudgetThresholdPercentage: 80,
	})
	require.NoError(t, err)
	require.Equal(t, 50, set.DailyLimit)
	require.Equal(t, 2, set.CurrentMonthCount)

	s.ResetSmsCounters()
	require.Zero(t, s.SmsSettings().CurrentMonthCount)
	require.Zero(t, s.SmsSettings().CurrentMonthCost)
}

func TestStoreWebhookPaging(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		s.AddWebhookTest(data.WebhookTest{URL: "http://example.com"})
	}

	p := s.WebhookTests(0, 2)
	require.Equal(t, 5, p.TotalElements)
	require.Equal(t, 3, p.TotalPages)
	require.Len(t, p.Content, 2)
	require.Equal(t, int64(5), p.Content[0].ID)

	p = s.WebhookTests(2, 2)
	require.Len(t, p.Content, 1)
	require.Equal(t, int64(1), p.Content[0].ID)

	require.NoError(t, s.DeleteWebhookTest(3))
	require.ErrorIs(t, s.DeleteWebhookTest(3), data.ErrNotFound)
}

func TestStoreUsers(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.AddUser("Ops@Example.com", "secret", false))

	admin, ok := s.CheckUser("ops@example.com", "secret")
	require.True(t, ok)
	require.False(t, admin)

	_, ok = s.CheckUser("ops@example.com", "wrong")
	require.False(t, ok)
}

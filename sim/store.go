package sim

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/indcloud/console/data"
	"golang.org/x/crypto/bcrypt"
)

// TrashRetention is how long a soft deleted record can be restored
const TrashRetention = 30 * 24 * time.Hour

// ErrExpired is returned when restoring a trash item past its deadline
var ErrExpired = fmt.Errorf("trash item expired")

type user struct {
	email string
	hash  []byte
	admin bool
}

type trashEntry struct {
	item   data.TrashItem
	device *data.Device
	org    *data.Organization
}

// Store holds the simulated backend records
type Store struct {
	lock sync.RWMutex
	now  func() time.Time

	devices   map[string]data.Device
	orgs      map[int64]data.Organization
	trash     map[int64]trashEntry
	nextTrash int64

	issues      map[int64]data.Issue
	comments    map[int64][]data.IssueComment
	nextComment int64

	sms data.SmsSettings

	webhookTests []data.WebhookTest
	nextWebhook  int64

	users map[string]user
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now:       time.Now,
		devices:   make(map[string]data.Device),
		orgs:      make(map[int64]data.Organization),
		trash:     make(map[int64]trashEntry),
		nextTrash: 1,
		issues:    make(map[int64]data.Issue),
		comments:  make(map[int64][]data.IssueComment),
		sms:       data.DefaultSmsSettings(),
		users:     make(map[string]user),
	}
}

// SetClock replaces the time source, used by tests
func (s *Store) SetClock(now func() time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.now = now
}

// AddUser adds a login. The password is stored as a bcrypt hash.
func (s *Store) AddUser(email, password string, admin bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.users[strings.ToLower(email)] = user{email: email, hash: hash, admin: admin}
	return nil
}

// CheckUser verifies a login
func (s *Store) CheckUser(email, password string) (admin bool, ok bool) {
	s.lock.RLock()
	u, found := s.users[strings.ToLower(email)]
	s.lock.RUnlock()
	if !found {
		return false, false
	}
	if bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return false, false
	}
	return u.admin, true
}

// AddOrganization adds or replaces an organization
func (s *Store) AddOrganization(o data.Organization) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if o.CreatedAt == nil {
		o.CreatedAt = data.NewTime(s.now().UTC())
	}
	s.orgs[o.ID] = o
}

// AddDevice adds or replaces a device. A missing ID is generated.
func (s *Store) AddDevice(d data.Device) data.Device {
	s.lock.Lock()
	defer s.lock.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt == nil {
		d.CreatedAt = data.NewTime(s.now().UTC())
	}
	if o, ok := s.orgs[d.OrganizationID]; ok {
		d.OrganizationName = o.Name
	}
	s.devices[d.ID] = d
	return d
}

// Devices returns all devices sorted by name
func (s *Store) Devices() []data.Device {
	s.lock.RLock()
	defer s.lock.RUnlock()
	ret := make([]data.Device, 0, len(s.devices))
	for _, d := range s.devices {
		ret = append(ret, d)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Name != ret[j].Name {
			return ret[i].Name < ret[j].Name
		}
		return ret[i].ID < ret[j].ID
	})
	return ret
}

// Device returns one device
func (s *Store) Device(id string) (data.Device, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	d, ok := s.devices[id]
	if !ok {
		return d, data.ErrNotFound
	}
	return d, nil
}

// UpdateDevice applies editable fields to a device
func (s *Store) UpdateDevice(id string, u data.DeviceUpdate) (data.Device, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return d, data.ErrNotFound
	}
	if strings.TrimSpace(u.Name) == "" {
		return d, fmt.Errorf("device name is required")
	}
	d.Name = u.Name
	d.Description = u.Description
	d.Location = u.Location
	d.SensorType = u.SensorType
	d.FirmwareVersion = u.FirmwareVersion
	d.UpdatedAt = data.NewTime(s.now().UTC())
	s.devices[id] = d
	return d, nil
}

// SetDeviceActive enables or disables a device
func (s *Store) SetDeviceActive(id string, active bool) (data.Device, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return d, data.ErrNotFound
	}
	d.Active = active
	if active {
		d.Status = "ONLINE"
	} else {
		d.Status = "OFFLINE"
	}
	s.devices[id] = d
	return d, nil
}

func (s *Store) addTrashLocked(e trashEntry, name, entityID, reason string) data.SoftDeleteResponse {
	now := s.now().UTC()
	expires := now.Add(TrashRetention)
	e.item = data.TrashItem{
		ID:             s.nextTrash,
		EntityType:     e.item.EntityType,
		EntityID:       entityID,
		EntityName:     name,
		DeletedAt:      data.NewTime(now),
		DeletedBy:      "admin",
		DeletionReason: reason,
		ExpiresAt:      data.NewTime(expires),
		DaysRemaining:  int64(TrashRetention / (24 * time.Hour)),
	}
	s.trash[e.item.ID] = e
	s.nextTrash++

	return data.SoftDeleteResponse{
		TrashID:       e.item.ID,
		EntityType:    e.item.EntityType,
		EntityName:    name,
		ExpiresAt:     expires.Format(time.RFC3339),
		DaysRemaining: e.item.DaysRemaining,
	}
}

// DeleteDevice moves a device to the trash
func (s *Store) DeleteDevice(id, reason string) (data.SoftDeleteResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return data.SoftDeleteResponse{}, data.ErrNotFound
	}
	delete(s.devices, id)
	return s.addTrashLocked(trashEntry{
		item:   data.TrashItem{EntityType: data.EntityDevice},
		device: &d,
	}, d.Name, d.ID, reason), nil
}

func (s *Store) orgLocked(o data.Organization) data.Organization {
	o.DeviceCount = 0
	for _, d := range s.devices {
		if d.OrganizationID == o.ID {
			o.DeviceCount++
		}
	}
	return o
}

// Organizations returns all organizations sorted by ID
func (s *Store) Organizations() []data.Organization {
	s.lock.RLock()
	defer s.lock.RUnlock()
	ret := make([]data.Organization, 0, len(s.orgs))
	for _, o := range s.orgs {
		ret = append(ret, s.orgLocked(o))
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret
}

// Organization returns one organization
func (s *Store) Organization(id int64) (data.Organization, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	o, ok := s.orgs[id]
	if !ok {
		return o, data.ErrNotFound
	}
	return s.orgLocked(o), nil
}

// UpdateOrganization applies editable fields to an organization
func (s *Store) UpdateOrganization(id int64, u data.OrganizationUpdate) (data.Organization, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return o, data.ErrNotFound
	}
	if strings.TrimSpace(u.Name) == "" {
		return o, fmt.Errorf("organization name is required")
	}
	o.Name = u.Name
	o.Description = u.Description
	s.orgs[id] = o
	for devID, d := range s.devices {
		if d.OrganizationID == id {
			d.OrganizationName = o.Name
			s.devices[devID] = d
		}
	}
	return s.orgLocked(o), nil
}

// SetOrganizationEnabled enables or disables an organization
func (s *Store) SetOrganizationEnabled(id int64, enabled bool) (data.Organization, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return o, data.ErrNotFound
	}
	o.Enabled = enabled
	s.orgs[id] = o
	return s.orgLocked(o), nil
}

// DeleteOrganization moves an organization to the trash
func (s *Store) DeleteOrganization(id int64, reason string) (data.SoftDeleteResponse, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return data.SoftDeleteResponse{}, data.ErrNotFound
	}
	delete(s.orgs, id)
	return s.addTrashLocked(trashEntry{
		item: data.TrashItem{EntityType: data.EntityOrganization},
		org:  &o,
	}, o.Name, fmt.Sprint(o.ID), reason), nil
}

// Trash lists restorable items, oldest first
func (s *Store) Trash() []data.TrashItem {
	s.lock.RLock()
	defer s.lock.RUnlock()
	now := s.now()
	ret := make([]data.TrashItem, 0, len(s.trash))
	for _, e := range s.trash {
		item := e.item
		if item.ExpiresAt != nil {
			if now.After(item.ExpiresAt.Time) {
				continue
			}
			item.DaysRemaining = int64(item.ExpiresAt.Sub(now) / (24 * time.Hour))
		}
		ret = append(ret, item)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret
}

// Restore puts a trashed record back exactly as it was deleted
func (s *Store) Restore(trashID int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	e, ok := s.trash[trashID]
	if !ok {
		return data.ErrNotFound
	}
	if e.item.ExpiresAt != nil && s.now().After(e.item.ExpiresAt.Time) {
		delete(s.trash, trashID)
		return ErrExpired
	}
	switch {
	case e.device != nil:
		s.devices[e.device.ID] = *e.device
	case e.org != nil:
		s.orgs[e.org.ID] = *e.org
	}
	delete(s.trash, trashID)
	return nil
}

// AddIssue adds or replaces an issue
func (s *Store) AddIssue(i data.Issue) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if i.Status == "" {
		i.Status = data.IssueSubmitted
	}
	if i.CreatedAt == nil {
		i.CreatedAt = data.NewTime(s.now().UTC())
	}
	s.issues[i.ID] = i
}

// Issues lists issues, newest first, optionally with one status
func (s *Store) Issues(status data.IssueStatus) []data.Issue {
	s.lock.RLock()
	defer s.lock.RUnlock()
	var ret []data.Issue
	for _, i := range s.issues {
		if status == "" || i.Status == status {
			i.CommentCount = len(s.comments[i.ID])
			ret = append(ret, i)
		}
	}
	sort.Slice(ret, func(a, b int) bool { return ret[a].ID > ret[b].ID })
	return ret
}

// Issue returns one issue
func (s *Store) Issue(id int64) (data.Issue, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	i, ok := s.issues[id]
	if !ok {
		return i, data.ErrNotFound
	}
	i.CommentCount = len(s.comments[id])
	return i, nil
}

// SetIssueStatus changes the status of an issue
func (s *Store) SetIssueStatus(id int64, status data.IssueStatus) (data.Issue, error) {
	if _, err := data.ParseIssueStatus(string(status)); err != nil {
		return data.Issue{}, err
	}
	s.lock.Lock()
	i, ok := s.issues[id]
	if ok {
		i.Status = status
		s.issues[id] = i
	}
	s.lock.Unlock()
	if !ok {
		return i, data.ErrNotFound
	}
	return s.Issue(id)
}

// Comments lists the comments of an issue
func (s *Store) Comments(id int64) ([]data.IssueComment, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if _, ok := s.issues[id]; !ok {
		return nil, data.ErrNotFound
	}
	return append([]data.IssueComment{}, s.comments[id]...), nil
}

// AddComment adds a comment to an issue
func (s *Store) AddComment(id int64, author string, c data.NewIssueComment) (data.IssueComment, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.issues[id]; !ok {
		return data.IssueComment{}, data.ErrNotFound
	}
	if strings.TrimSpace(c.Message) == "" {
		return data.IssueComment{}, fmt.Errorf("comment message is required")
	}
	s.nextComment++
	ret := data.IssueComment{
		ID:        s.nextComment,
		IssueID:   id,
		Author:    author,
		Message:   c.Message,
		Internal:  c.Internal,
		CreatedAt: data.NewTime(s.now().UTC()),
	}
	s.comments[id] = append(s.comments[id], ret)
	return ret, nil
}

// SmsSettings returns the SMS settings
func (s *Store) SmsSettings() data.SmsSettings {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.sms
}

// UpdateSmsSettings applies SMS settings
func (s *Store) UpdateSmsSettings(u data.SmsSettingsUpdate) (data.SmsSettings, error) {
	if u.DailyLimit < 0 || u.MonthlyBudget < 0 {
		return data.SmsSettings{}, fmt.Errorf("limits must not be negative")
	}
	if u.BudgetThresholdPercentage < 0 || u.BudgetThresholdPercentage > 100 {
		return data.SmsSettings{}, fmt.Errorf("budget threshold must be between 0 and 100")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sms.Enabled = u.Enabled
	s.sms.DailyLimit = u.DailyLimit
	s.sms.MonthlyBudget = u.MonthlyBudget
	s.sms.AlertOnBudgetThreshold = u.AlertOnBudgetThreshold
	s.sms.BudgetThresholdPercentage = u.BudgetThresholdPercentage
	return s.sms, nil
}

// RecordSms counts a sent message, used to exercise the budget display
func (s *Store) RecordSms(cost float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sms.CurrentMonthCount++
	s.sms.CurrentMonthCost += cost
}

// ResetSmsCounters zeroes the monthly counters
func (s *Store) ResetSmsCounters() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sms.CurrentMonthCount = 0
	s.sms.CurrentMonthCost = 0
}

// AddWebhookTest records a webhook test result
func (s *Store) AddWebhookTest(w data.WebhookTest) data.WebhookTest {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.nextWebhook++
	w.ID = s.nextWebhook
	if w.CreatedAt == nil {
		w.CreatedAt = data.NewTime(s.now().UTC())
	}
	s.webhookTests = append(s.webhookTests, w)
	return w
}

// WebhookTests returns a page of webhook tests, newest first
func (s *Store) WebhookTests(page, size int) data.Page[data.WebhookTest] {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	total := len(s.webhookTests)
	ret := data.Page[data.WebhookTest]{
		Content:       []data.WebhookTest{},
		TotalElements: total,
		TotalPages:    (total + size - 1) / size,
		Number:        page,
		Size:          size,
	}
	for i := page * size; i < (page+1)*size && i < total; i++ {
		ret.Content = append(ret.Content, s.webhookTests[total-1-i])
	}
	return ret
}

// WebhookTest returns one webhook test
func (s *Store) WebhookTest(id int64) (data.WebhookTest, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	for _, w := range s.webhookTests {
		if w.ID == id {
			return w, nil
		}
	}
	return data.WebhookTest{}, data.ErrNotFound
}

// DeleteWebhookTest removes a webhook test
func (s *Store) DeleteWebhookTest(id int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for i, w := range s.webhookTests {
		if w.ID == id {
			s.webhookTests = append(s.webhookTests[:i], s.webhookTests[i+1:]...)
			return nil
		}
	}
	return data.ErrNotFound
}

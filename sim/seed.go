package sim

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/indcloud/console/data"
)

// deviceID derives a stable device ID from the external ID
func deviceID(externalID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("indcloud-sim/"+externalID)).String()
}

// Seed fills a store with demo records
func Seed(s *Store) {
	now := time.Now().UTC()

	orgs := []data.Organization{
		{ID: 1, Name: "Acme Manufacturing", Description: "Plant floor sensors", Enabled: true, UserCount: 12},
		{ID: 2, Name: "Greenfield Farms", Description: "Irrigation and soil monitoring", Enabled: true, UserCount: 4},
		{ID: 3, Name: "Harbor Logistics", Enabled: false, UserCount: 2},
	}
	for _, o := range orgs {
		s.AddOrganization(o)
	}

	sensorTypes := []string{"temperature", "humidity", "power", "soil", "vibration"}
	for i := 1; i <= 12; i++ {
		ext := fmt.Sprintf("sensor-%03d", i)
		org := orgs[(i-1)%len(orgs)]
		d := data.Device{
			ID:              deviceID(ext),
			ExternalID:      ext,
			Name:            fmt.Sprintf("Sensor %02d", i),
			Active:          i%5 != 0,
			SensorType:      sensorTypes[i%len(sensorTypes)],
			FirmwareVersion: fmt.Sprintf("2.%d.0", i%4),
			Status:          "ONLINE",
			OrganizationID:  org.ID,
			HasAPIToken:     i%3 != 0,
		}
		if i%4 != 0 {
			d.Location = fmt.Sprintf("Building %c", 'A'+rune(i%3))
		}
		if !d.Active {
			d.Status = "OFFLINE"
		}
		if i%6 != 0 {
			d.LastSeenAt = data.NewTime(now.Add(-time.Duration(i*i) * time.Minute))
			score := 100 - i*3
			d.HealthScore = &score
		} else {
			d.Status = "UNKNOWN"
		}
		s.AddDevice(d)
	}

	issues := []data.Issue{
		{ID: 1, Title: "Dashboard does not load", Category: "BUG", Severity: "HIGH",
			Username: "jane", OrganizationName: orgs[0].Name},
		{ID: 2, Title: "Add CSV export for alerts", Category: "FEATURE_REQUEST", Severity: "LOW",
			Username: "tom", OrganizationName: orgs[1].Name, Status: data.IssueInReview},
		{ID: 3, Title: "Device sensor-004 offline", Category: "QUESTION", Severity: "MEDIUM",
			Username: "ops", OrganizationName: orgs[0].Name, Status: data.IssueResolved},
	}
	for _, i := range issues {
		s.AddIssue(i)
	}
	_, _ = s.AddComment(1, "support", data.NewIssueComment{Message: "Can you share a screenshot?"})

	s.RecordSms(0.0075)
	s.RecordSms(0.0075)
}

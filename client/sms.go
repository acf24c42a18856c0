package client

import (
	"context"
	"net/http"

	"github.com/indcloud/console/data"
)

const smsPath = "/api/v1/sms-settings"

// SmsSettings fetches the organization SMS settings
func (c *Client) SmsSettings(ctx context.Context) (data.SmsSettings, error) {
	var ret data.SmsSettings
	err := c.do(ctx, http.MethodGet, smsPath, nil, nil, &ret)
	return ret, err
}

// UpdateSmsSettings saves the SMS settings and returns the stored copy
func (c *Client) UpdateSmsSettings(ctx context.Context, u data.SmsSettingsUpdate) (data.SmsSettings, error) {
	var ret data.SmsSettings
	err := c.do(ctx, http.MethodPut, smsPath, nil, u, &ret)
	return ret, err
}

// ResetSmsCounters zeroes the monthly message count and cost
func (c *Client) ResetSmsCounters(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, smsPath+"/reset-monthly-counters", nil, nil, nil)
}

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/indcloud/console/data"
)

const (
	devicesPath = "/api/v1/admin/devices"
	orgsPath    = "/api/v1/admin/organizations"
	trashPath   = "/api/v1/admin/trash"
)

func reasonQuery(reason string) url.Values {
	if reason == "" {
		return nil
	}
	return url.Values{"reason": {reason}}
}

// Devices lists every device across organizations
func (c *Client) Devices(ctx context.Context) ([]data.Device, error) {
	var ret []data.Device
	err := c.do(ctx, http.MethodGet, devicesPath, nil, nil, &ret)
	return ret, err
}

// Device fetches one device
func (c *Client) Device(ctx context.Context, id string) (data.Device, error) {
	var ret data.Device
	err := c.do(ctx, http.MethodGet, devicesPath+"/"+url.PathEscape(id), nil, nil, &ret)
	return ret, err
}

// UpdateDevice saves the editable fields of a device and returns the new record
func (c *Client) UpdateDevice(ctx context.Context, id string, u data.DeviceUpdate) (data.Device, error) {
	return mutate[data.Device](ctx, c, http.MethodPut, devicesPath+"/"+url.PathEscape(id), nil, u)
}

// EnableDevice activates a device
func (c *Client) EnableDevice(ctx context.Context, id string) (data.Device, error) {
	return mutate[data.Device](ctx, c, http.MethodPut, devicesPath+"/"+url.PathEscape(id)+"/enable", nil, nil)
}

// DisableDevice deactivates a device
func (c *Client) DisableDevice(ctx context.Context, id string) (data.Device, error) {
	return mutate[data.Device](ctx, c, http.MethodPut, devicesPath+"/"+url.PathEscape(id)+"/disable", nil, nil)
}

// DeleteDevice moves a device to the trash
func (c *Client) DeleteDevice(ctx context.Context, id, reason string) (data.SoftDeleteResponse, error) {
	return mutate[data.SoftDeleteResponse](ctx, c, http.MethodDelete,
		devicesPath+"/"+url.PathEscape(id), reasonQuery(reason), nil)
}

// Organizations lists every organization
func (c *Client) Organizations(ctx context.Context) ([]data.Organization, error) {
	var ret []data.Organization
	err := c.do(ctx, http.MethodGet, orgsPath, nil, nil, &ret)
	return ret, err
}

// Organization fetches one organization
func (c *Client) Organization(ctx context.Context, id int64) (data.Organization, error) {
	var ret data.Organization
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("%v/%v", orgsPath, id), nil, nil, &ret)
	return ret, err
}

// UpdateOrganization saves the editable fields of an organization
func (c *Client) UpdateOrganization(ctx context.Context, id int64, u data.OrganizationUpdate) (data.Organization, error) {
	return mutate[data.Organization](ctx, c, http.MethodPut, fmt.Sprintf("%v/%v", orgsPath, id), nil, u)
}

// EnableOrganization enables an organization
func (c *Client) EnableOrganization(ctx context.Context, id int64) (data.Organization, error) {
	return mutate[data.Organization](ctx, c, http.MethodPut, fmt.Sprintf("%v/%v/enable", orgsPath, id), nil, nil)
}

// DisableOrganization disables an organization
func (c *Client) DisableOrganization(ctx context.Context, id int64) (data.Organization, error) {
	return mutate[data.Organization](ctx, c, http.MethodPut, fmt.Sprintf("%v/%v/disable", orgsPath, id), nil, nil)
}

// DeleteOrganization moves an organization to the trash
func (c *Client) DeleteOrganization(ctx context.Context, id int64, reason string) (data.SoftDeleteResponse, error) {
	return mutate[data.SoftDeleteResponse](ctx, c, http.MethodDelete,
		fmt.Sprintf("%v/%v", orgsPath, id), reasonQuery(reason), nil)
}

// Trash lists soft deleted records that can still be restored
func (c *Client) Trash(ctx context.Context) ([]data.TrashItem, error) {
	var ret []data.TrashItem
	err := c.do(ctx, http.MethodGet, trashPath, nil, nil, &ret)
	return ret, err
}

// Restore brings a trashed record back
func (c *Client) Restore(ctx context.Context, trashID int64) error {
	_, err := mutate[any](ctx, c, http.MethodPost, fmt.Sprintf("%v/%v/restore", trashPath, trashID), nil, nil)
	return err
}

package main

import (
	"time"

	"github.com/indcloud/console/data"
	"github.com/spf13/cobra"
)

func (c *cli) devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"device"},
		Short:   "Manage devices",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			devices, err := cl.Devices(ctx)
			if err != nil {
				return err
			}
			now := time.Now()
			w := c.table("ID", "NAME", "EXTERNAL ID", "STATUS", "ACTIVE", "ORGANIZATION", "HEALTH", "LAST SEEN")
			for _, d := range devices {
				row(w, d.ID, d.Label(), data.OrNA(d.ExternalID), data.OrNA(d.Status), yesNo(d.Active),
					data.OrNA(d.OrganizationName), d.Health(), data.LastSeen(d.LastSeenAt, now))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			d, err := cl.Device(ctx, args[0])
			if err != nil {
				return err
			}
			w := c.table("FIELD", "VALUE")
			row(w, "id", d.ID)
			row(w, "name", data.OrNA(d.Name))
			row(w, "external id", data.OrNA(d.ExternalID))
			row(w, "description", data.OrNA(d.Description))
			row(w, "location", data.OrNA(d.Location))
			row(w, "sensor type", data.OrNA(d.SensorType))
			row(w, "firmware", data.OrNA(d.FirmwareVersion))
			row(w, "status", data.OrNA(d.Status))
			row(w, "active", yesNo(d.Active))
			row(w, "organization", data.OrNA(d.OrganizationName))
			row(w, "health", d.Health())
			row(w, "api token", yesNo(d.HasAPIToken))
			row(w, "last seen", data.FormatTime(d.LastSeenAt))
			row(w, "created", data.FormatTime(d.CreatedAt))
			return w.Flush()
		},
	})

	setActive := func(use, short string, enable bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cl, err := c.client()
				if err != nil {
					return err
				}
				ctx, cancel := c.context(cmd)
				defer cancel()
				var d data.Device
				if enable {
					d, err = cl.EnableDevice(ctx, args[0])
				} else {
					d, err = cl.DisableDevice(ctx, args[0])
				}
				if err != nil {
					return err
				}
				c.printf("%v %vd, active: %v\n", d.Label(), use, yesNo(d.Active))
				return nil
			},
		}
	}
	cmd.AddCommand(setActive("enable", "Enable a device", true))
	cmd.AddCommand(setActive("disable", "Disable a device", false))

	var reason string
	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Move a device to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			d, err := cl.Device(ctx, args[0])
			if err != nil {
				return err
			}
			ok, err := c.confirm(cmd, yes, "Delete device "+d.Label()+"?")
			if err != nil || !ok {
				return err
			}
			r, err := cl.DeleteDevice(ctx, d.ID, reason)
			if err != nil {
				return err
			}
			c.printDeleted(r)
			return nil
		},
	}
	del.Flags().StringVar(&reason, "reason", "", "deletion reason recorded in the trash")
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(del)

	cmd.AddCommand(c.restoreCmd("restore <trash id>", "Restore a deleted device from the trash"))

	var u data.DeviceUpdate
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit device fields",
		Long:  "Edit device fields. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			d, err := cl.Device(ctx, args[0])
			if err != nil {
				return err
			}
			cur := d.Update()
			flags := cmd.Flags()
			if flags.Changed("name") {
				cur.Name = u.Name
			}
			if flags.Changed("description") {
				cur.Description = u.Description
			}
			if flags.Changed("location") {
				cur.Location = u.Location
			}
			if flags.Changed("sensor-type") {
				cur.SensorType = u.SensorType
			}
			if flags.Changed("firmware") {
				cur.FirmwareVersion = u.FirmwareVersion
			}
			d, err = cl.UpdateDevice(ctx, d.ID, cur)
			if err != nil {
				return err
			}
			c.printf("updated %v\n", d.Label())
			return nil
		},
	}
	update.Flags().StringVar(&u.Name, "name", "", "device name")
	update.Flags().StringVar(&u.Description, "description", "", "description")
	update.Flags().StringVar(&u.Location, "location", "", "location")
	update.Flags().StringVar(&u.SensorType, "sensor-type", "", "sensor type")
	update.Flags().StringVar(&u.FirmwareVersion, "firmware", "", "firmware version")
	cmd.AddCommand(update)

	return cmd
}

func (c *cli) orgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"org", "organizations"},
		Short:   "Manage organizations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List organizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			orgs, err := cl.Organizations(ctx)
			if err != nil {
				return err
			}
			w := c.table("ID", "NAME", "ENABLED", "DEVICES", "USERS", "CREATED")
			for _, o := range orgs {
				row(w, o.ID, o.Name, yesNo(o.Enabled), o.DeviceCount, o.UserCount, data.FormatTime(o.CreatedAt))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			o, err := cl.Organization(ctx, id)
			if err != nil {
				return err
			}
			w := c.table("FIELD", "VALUE")
			row(w, "id", o.ID)
			row(w, "name", o.Name)
			row(w, "description", data.OrNA(o.Description))
			row(w, "enabled", yesNo(o.Enabled))
			row(w, "devices", o.DeviceCount)
			row(w, "users", o.UserCount)
			row(w, "created", data.FormatTime(o.CreatedAt))
			return w.Flush()
		},
	})

	setEnabled := func(use, short string, enable bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				cl, err := c.client()
				if err != nil {
					return err
				}
				ctx, cancel := c.context(cmd)
				defer cancel()
				var o data.Organization
				if enable {
					o, err = cl.EnableOrganization(ctx, id)
				} else {
					o, err = cl.DisableOrganization(ctx, id)
				}
				if err != nil {
					return err
				}
				c.printf("%v %vd, enabled: %v\n", o.Name, use, yesNo(o.Enabled))
				return nil
			},
		}
	}
	cmd.AddCommand(setEnabled("enable", "Enable an organization", true))
	cmd.AddCommand(setEnabled("disable", "Disable an organization", false))

	var reason string
	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Move an organization to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			o, err := cl.Organization(ctx, id)
			if err != nil {
				return err
			}
			ok, err := c.confirm(cmd, yes, "Delete organization "+o.Name+"?")
			if err != nil || !ok {
				return err
			}
			r, err := cl.DeleteOrganization(ctx, id, reason)
			if err != nil {
				return err
			}
			c.printDeleted(r)
			return nil
		},
	}
	del.Flags().StringVar(&reason, "reason", "", "deletion reason recorded in the trash")
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(del)

	cmd.AddCommand(c.restoreCmd("restore <trash id>", "Restore a deleted organization from the trash"))

	var u data.OrganizationUpdate
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit organization fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			o, err := cl.Organization(ctx, id)
			if err != nil {
				return err
			}
			cur := data.OrganizationUpdate{Name: o.Name, Description: o.Description}
			if cmd.Flags().Changed("name") {
				cur.Name = u.Name
			}
			if cmd.Flags().Changed("description") {
				cur.Description = u.Description
			}
			o, err = cl.UpdateOrganization(ctx, id, cur)
			if err != nil {
				return err
			}
			c.printf("updated %v\n", o.Name)
			return nil
		},
	}
	update.Flags().StringVar(&u.Name, "name", "", "organization name")
	update.Flags().StringVar(&u.Description, "description", "", "description")
	cmd.AddCommand(update)

	return cmd
}

func (c *cli) restoreCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			if err := cl.Restore(ctx, id); err != nil {
				return err
			}
			c.printf("restored trash item %v\n", id)
			return nil
		},
	}
}

func (c *cli) trashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "List and restore deleted devices and organizations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			items, err := cl.Trash(ctx)
			if err != nil {
				return err
			}
			w := c.table("ID", "TYPE", "NAME", "DELETED", "BY", "REASON", "DAYS LEFT")
			for _, t := range items {
				row(w, t.ID, t.EntityType, t.EntityName, data.FormatTime(t.DeletedAt),
					data.OrNA(t.DeletedBy), data.OrNA(t.DeletionReason), t.DaysRemaining)
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(c.restoreCmd("restore <id>", "Restore a trash item"))
	return cmd
}

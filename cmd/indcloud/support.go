package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/indcloud/console/data"
	"github.com/spf13/cobra"
)

func (c *cli) issuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue"},
		Short:   "Triage support issues",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List support issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var st data.IssueStatus
			if status != "" {
				var err error
				if st, err = data.ParseIssueStatus(status); err != nil {
					return err
				}
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			issues, err := cl.Issues(ctx, st)
			if err != nil {
				return err
			}
			w := c.table("ID", "STATUS", "SEVERITY", "TITLE", "USER", "ORGANIZATION", "COMMENTS", "CREATED")
			for _, i := range issues {
				row(w, i.ID, i.Status, data.OrNA(i.Severity), i.Title, data.OrNA(i.Username),
					data.OrNA(i.OrganizationName), i.CommentCount, data.FormatTime(i.CreatedAt))
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "", "only issues in this state: submitted, in_review, resolved, closed")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show an issue and its comments",
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
			i, err := cl.Issue(ctx, id)
			if err != nil {
				return err
			}
			comments, err := cl.IssueComments(ctx, id)
			if err != nil {
				return err
			}

			c.printf("#%v %v\n", i.ID, i.Title)
			c.printf("status: %v  severity: %v  category: %v\n", i.Status, data.OrNA(i.Severity), data.OrNA(i.Category))
			c.printf("from: %v (%v), %v\n", data.OrNA(i.Username), data.OrNA(i.OrganizationName), data.FormatTime(i.CreatedAt))
			if i.Description != "" {
				c.printf("\n%v\n", i.Description)
			}
			for _, cm := range comments {
				internal := ""
				if cm.Internal {
					internal = " (internal)"
				}
				c.printf("\n%v, %v%v:\n%v\n", cm.Author, data.FormatTime(cm.CreatedAt), internal, cm.Message)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an issue to submitted, in_review, resolved or closed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := data.ParseIssueStatus(args[1])
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			i, err := cl.SetIssueStatus(ctx, id, st)
			if err != nil {
				return err
			}
			c.printf("issue %v is now %v\n", i.ID, i.Status)
			return nil
		},
	})

	var internal bool
	comment := &cobra.Command{
		Use:   "comment <id> <message>",
		Short: "Reply to an issue",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			msg := strings.TrimSpace(strings.Join(args[1:], " "))
			if msg == "" {
				return fmt.Errorf("comment message is empty")
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			cm, err := cl.AddIssueComment(ctx, id, data.NewIssueComment{Message: msg, Internal: internal})
			if err != nil {
				return err
			}
			c.printf("added comment %v to issue %v\n", cm.ID, id)
			return nil
		},
	}
	comment.Flags().BoolVar(&internal, "internal", false, "only visible to admins")
	cmd.AddCommand(comment)

	return cmd
}

func (c *cli) printSms(s data.SmsSettings) {
	w := c.table("SETTING", "VALUE")
	row(w, "enabled", yesNo(s.Enabled))
	row(w, "daily limit", s.DailyLimit)
	row(w, "monthly budget", fmt.Sprintf("%.2f", s.MonthlyBudget))
	row(w, "sent this month", s.CurrentMonthCount)
	row(w, "cost this month", fmt.Sprintf("%.2f (%.0f%%)", s.CurrentMonthCost, s.BudgetUsed()*100))
	row(w, "budget alert", yesNo(s.AlertOnBudgetThreshold))
	row(w, "alert threshold", fmt.Sprintf("%v%%", s.BudgetThresholdPercentage))
	w.Flush()
	if s.OverThreshold() {
		c.printf("warning: monthly SMS spend reached the alert threshold\n")
	}
}

func (c *cli) smsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sms",
		Short: "SMS alert settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show SMS settings and usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			s, err := cl.SmsSettings(ctx)
			if err != nil {
				return err
			}
			c.printSms(s)
			return nil
		},
	})

	var u data.SmsSettingsUpdate
	set := &cobra.Command{
		Use:   "set",
		Short: "Change SMS settings. Only the flags given are changed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("threshold") && (u.BudgetThresholdPercentage < 1 || u.BudgetThresholdPercentage > 100) {
				return fmt.Errorf("threshold must be between 1 and 100")
			}
			if flags.Changed("daily-limit") && u.DailyLimit < 0 {
				return fmt.Errorf("daily limit can not be negative")
			}
			if flags.Changed("budget") && u.MonthlyBudget < 0 {
				return fmt.Errorf("monthly budget can not be negative")
			}

			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			cur, err := cl.SmsSettings(ctx)
			if err != nil {
				return err
			}
			next := cur.Update()
			if flags.Changed("enabled") {
				next.Enabled = u.Enabled
			}
			if flags.Changed("daily-limit") {
				next.DailyLimit = u.DailyLimit
			}
			if flags.Changed("budget") {
				next.MonthlyBudget = u.MonthlyBudget
			}
			if flags.Changed("alert") {
				next.AlertOnBudgetThreshold = u.AlertOnBudgetThreshold
			}
			if flags.Changed("threshold") {
				next.BudgetThresholdPercentage = u.BudgetThresholdPercentage
			}
			s, err := cl.UpdateSmsSettings(ctx, next)
			if err != nil {
				return err
			}
			c.printSms(s)
			return nil
		},
	}
	set.Flags().BoolVar(&u.Enabled, "enabled", false, "send SMS alerts")
	set.Flags().IntVar(&u.DailyLimit, "daily-limit", 0, "most messages per day")
	set.Flags().Float64Var(&u.MonthlyBudget, "budget", 0, "monthly budget")
	set.Flags().BoolVar(&u.AlertOnBudgetThreshold, "alert", false, "alert when spend reaches the threshold")
	set.Flags().IntVar(&u.BudgetThresholdPercentage, "threshold", 0, "budget alert threshold in percent")
	cmd.AddCommand(set)

	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Reset the monthly SMS counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := c.confirm(cmd, yes, "Reset the monthly SMS counters?")
			if err != nil || !ok {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			if err := cl.ResetSmsCounters(ctx); err != nil {
				return err
			}
			c.printf("SMS counters reset\n")
			return nil
		},
	}
	reset.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(reset)

	return cmd
}

func (c *cli) printWebhookTest(t data.WebhookTest) {
	result := "ok"
	if !t.Succeeded() {
		result = "failed"
	}
	c.printf("#%v %v %v: %v, status %v in %vms\n", t.ID, t.Method, t.URL, result, t.StatusCode, t.DurationMs)
	if t.ErrorMessage != "" {
		c.printf("error: %v\n", t.ErrorMessage)
	}
	if t.ResponseBody != "" {
		c.printf("%v\n", t.ResponseBody)
	}
}

func (c *cli) webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Test webhooks and browse past tests",
	}

	var req data.WebhookTestRequest
	var headers []string
	test := &cobra.Command{
		Use:   "test <url>",
		Short: "Have the backend call a webhook and record the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.URL = args[0]
			req.Method = strings.ToUpper(req.Method)
			switch req.Method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return fmt.Errorf("unsupported method %q", req.Method)
			}
			req.Headers = map[string]string{}
			for _, h := range headers {
				k, v, ok := strings.Cut(h, "=")
				if !ok {
					k, v, ok = strings.Cut(h, ":")
				}
				if !ok || strings.TrimSpace(k) == "" {
					return fmt.Errorf("invalid header %q, expected name=value", h)
				}
				req.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}

			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			t, err := cl.TestWebhook(ctx, req)
			if err != nil {
				return err
			}
			c.printWebhookTest(t)
			return nil
		},
	}
	test.Flags().StringVar(&req.Name, "name", "", "label stored with the result")
	test.Flags().StringVarP(&req.Method, "method", "X", http.MethodPost, "HTTP method")
	test.Flags().StringVarP(&req.Body, "body", "d", "", "request body")
	test.Flags().StringArrayVarP(&headers, "header", "H", nil, "request header as name=value, repeatable")
	cmd.AddCommand(test)

	var page, size int
	history := &cobra.Command{
		Use:   "history",
		Short: "List past webhook tests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			p, err := cl.WebhookTests(ctx, page, size)
			if err != nil {
				return err
			}
			w := c.table("ID", "NAME", "METHOD", "URL", "STATUS", "MS", "CREATED")
			for _, t := range p.Content {
				status := fmt.Sprint(t.StatusCode)
				if t.ErrorMessage != "" {
					status = "error"
				}
				row(w, t.ID, data.OrNA(t.Name), t.Method, t.URL, status, t.DurationMs, data.FormatTime(t.CreatedAt))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			c.printf("page %v of %v, %v tests\n", p.Number+1, p.TotalPages, p.TotalElements)
			return nil
		},
	}
	history.Flags().IntVar(&page, "page", 0, "page number, from 0")
	history.Flags().IntVar(&size, "size", 20, "page size")
	cmd.AddCommand(history)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a webhook test result",
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
			t, err := cl.WebhookTest(ctx, id)
			if err != nil {
				return err
			}
			c.printWebhookTest(t)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a webhook test from the history",
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
			if err := cl.DeleteWebhookTest(ctx, id); err != nil {
				return err
			}
			c.printf("deleted webhook test %v\n", id)
			return nil
		},
	})

	return cmd
}

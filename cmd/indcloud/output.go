package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/indcloud/console/data"
	"github.com/spf13/cobra"
)

// table writes aligned columns to the command output
func (c *cli) table(header ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	return w
}

func row(w io.Writer, cols ...interface{}) {
	s := make([]string, len(cols))
	for i, c := range cols {
		s[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(w, strings.Join(s, "\t"))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// confirm asks a yes/no question on the command input unless yes is set
func (c *cli) confirm(cmd *cobra.Command, yes bool, prompt string) (bool, error) {
	if yes {
		return true, nil
	}
	c.printf("%v [y/N] ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	c.printf("cancelled\n")
	return false, nil
}

func (c *cli) printDeleted(r data.SoftDeleteResponse) {
	c.printf("moved %v %q to the trash (id %v), restorable until %v (%v days)\n",
		strings.ToLower(r.EntityType), r.EntityName, r.TrashID,
		r.Deadline().Local().Format(time.DateTime), r.DaysRemaining)
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cairn-dev/cairn/internal/command"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Description string
	Confidence  int
	Date        string
	CommitRef   string
	Files       []string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts, Confidence: -1}

	cmd := &cobra.Command{
		Use:   "add <kind> <title>",
		Short: "Add a node to the decision graph",
		Long: `Add a node of the given kind (goal, decision, option, observation,
action, outcome, revisit).

Example:
  cairn add goal "Cache strategy" --confidence 80
  cairn add decision "Chose in-memory cache" --date 2026-01-15`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Description, "description", "", "longer free-text rationale")
	cmd.Flags().IntVar(&opts.Confidence, "confidence", -1, "subjective weight 0-100")
	cmd.Flags().StringVar(&opts.Date, "date", "", "backdate (RFC 3339 or YYYY-MM-DD) for historical reconstruction")
	cmd.Flags().StringVar(&opts.CommitRef, "commit", "", "associated commit reference")
	cmd.Flags().StringSliceVar(&opts.Files, "file", nil, "associated file path (repeatable)")

	return cmd
}

func runAdd(cmd *cobra.Command, opts *AddOptions, kind, title string) error {
	s, err := openSession(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	c, err := s.commander()
	if err != nil {
		return err
	}

	params := command.AddParams{
		Kind:        kind,
		Title:       title,
		Description: opts.Description,
		CommitRef:   opts.CommitRef,
		Files:       opts.Files,
	}
	if opts.Confidence >= 0 {
		params.Confidence = &opts.Confidence
	} else if s.cfg.DefaultConfidence > 0 {
		params.Confidence = &s.cfg.DefaultConfidence
	}
	if opts.Date != "" {
		date, err := parseDate(opts.Date)
		if err != nil {
			return WrapExitError(ExitFailure, "command rejected", err)
		}
		params.Date = date
	}

	rec, err := c.Add(params)
	if err != nil {
		return commandErr(err)
	}
	if err := s.appendRecords(rec); err != nil {
		return err
	}

	f := formatter(opts.RootOptions, cmd)
	if done, err := f.JSON(map[string]string{"change_id": rec.ChangeID}); done {
		return err
	}
	f.Printf("Added %s %q (%s)\n", kind, title, rec.ChangeID)
	return nil
}

// parseDate accepts RFC 3339 timestamps or bare dates.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want RFC 3339 or YYYY-MM-DD", s)
}

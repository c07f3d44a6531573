// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"filippo.io/age"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tracer/cmd/bureau-tracer/cli"
	"github.com/bureau-foundation/tracer/lib/sealed"
	"github.com/bureau-foundation/tracer/lib/session"
	"github.com/bureau-foundation/tracer/lib/sessionindex"
	"github.com/bureau-foundation/tracer/lib/sessionstore"
	"github.com/bureau-foundation/tracer/lib/sessionview"
)

func sessionsCommand(stdio streams) *cli.Command {
	return &cli.Command{
		Name:    "sessions",
		Summary: "Inspect recorded sessions",
		Subcommands: []*cli.Command{
			sessionsListCommand(stdio),
			sessionsShowCommand(stdio),
			sessionsSearchCommand(stdio),
			sessionsBrowseCommand(stdio),
			sessionsStatsCommand(stdio),
			sessionsReindexCommand(stdio),
		},
	}
}

// sessionSummary is the JSON form of one listed session.
type sessionSummary struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Archive      string    `json:"archive"`
	Size         int64     `json:"size"`
	Status       string    `json:"status,omitempty"`
	Command      string    `json:"command,omitempty"`
	Start        time.Time `json:"start,omitzero"`
	Interactions int       `json:"interactions"`
	Error        string    `json:"error,omitempty"`
}

func summarize(entry sessionstore.Entry) sessionSummary {
	summary := sessionSummary{
		ID:      entry.ID(),
		Path:    entry.Path,
		Archive: string(entry.Archive),
		Size:    entry.Size,
	}
	if entry.Err != nil {
		summary.Error = entry.Err.Error()
		return summary
	}
	recorded := entry.Artifact.Session()
	summary.Status = string(recorded.Status)
	summary.Command = recorded.Metadata.Command
	summary.Start = recorded.Start
	summary.Interactions = len(recorded.Interactions)
	return summary
}

func sessionsListCommand(stdio streams) *cli.Command {
	var flags commonFlags
	var output cli.JSONOutput
	return &cli.Command{
		Name:    "list",
		Summary: "List recorded sessions, newest first",
		Usage:   "bureau-tracer sessions list [flags]",
		Flags: func() *pflag.FlagSet {
			flags, output = commonFlags{}, cli.JSONOutput{}
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flags.bind(flagSet)
			output.AddFlag(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 0, "bureau-tracer sessions list [flags]"); err != nil {
				return err
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			entries, err := listSessions(cfg.Paths.Sessions)
			if err != nil {
				return err
			}
			summaries := make([]sessionSummary, 0, len(entries))
			for _, entry := range entries {
				summaries = append(summaries, summarize(entry))
			}
			if done, err := output.EmitJSON(stdio.stdout, summaries); done {
				return err
			}
			return stdio.printer().List(stdio.stdout, entries, time.Now())
		},
	}
}

// listSessions lists the sessions directory. A directory that does not
// exist yet simply has no sessions.
func listSessions(directory string) ([]sessionstore.Entry, error) {
	entries, err := sessionstore.List(directory)
	if err != nil {
		return nil, cli.Internal("listing sessions: %w", err)
	}
	return entries, nil
}

// loadSession resolves a session reference (an ID, a unique ID
// prefix, "latest", or an artifact path) and loads it.
func loadSession(directory, reference string) (*session.Session, error) {
	path, err := resolveSession(directory, reference)
	if err != nil {
		return nil, err
	}
	artifact, err := sessionstore.Load(path)
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return artifact.Session(), nil
}

func resolveSession(directory, reference string) (string, error) {
	notFound := func() error {
		return cli.NotFound("no session matches %q", reference).
			WithHint("Run 'bureau-tracer sessions list' to see recorded sessions.")
	}

	if path, err := sessionstore.Find(directory, reference); err == nil {
		return path, nil
	} else if !errors.Is(err, session.ErrUnknownSession) {
		return "", cli.Internal("%w", err)
	}

	entries, err := listSessions(directory)
	if err != nil {
		return "", err
	}
	if reference == "latest" {
		if len(entries) == 0 {
			return "", notFound()
		}
		return entries[0].Path, nil
	}
	var matches []sessionstore.Entry
	for _, entry := range entries {
		if strings.HasPrefix(entry.ID(), reference) {
			matches = append(matches, entry)
		}
	}
	switch len(matches) {
	case 0:
		return "", notFound()
	case 1:
		return matches[0].Path, nil
	default:
		ids := make([]string, len(matches))
		for i, match := range matches {
			ids[i] = match.ID()
		}
		return "", cli.Validation("%q matches %d sessions: %s", reference, len(matches), strings.Join(ids, ", "))
	}
}

func loadIdentities(path string) ([]age.Identity, error) {
	if path == "" {
		return nil, nil
	}
	identities, err := sealed.LoadIdentities(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cli.NotFound("%w", err)
		}
		return nil, cli.Validation("%w", err)
	}
	return identities, nil
}

func sessionsShowCommand(stdio streams) *cli.Command {
	var flags commonFlags
	var raw, noMarkdown bool
	var identityPath string
	return &cli.Command{
		Name:    "show",
		Summary: "Render one session",
		Description: `Render one recorded session: its metadata and every interaction.

The session is named by ID, unique ID prefix, "latest", or an artifact
path. Text is masked unless --raw is given; sealed raw text also needs
the age identity it was sealed to.`,
		Usage: "bureau-tracer sessions show <session> [flags]",
		Examples: []cli.Example{
			{Description: "Show the newest session", Command: "bureau-tracer sessions show latest"},
			{Description: "Show unmasked text sealed to your key", Command: "bureau-tracer sessions show pty-20260314 --raw --identity ~/.config/bureau-tracer/identity.txt"},
		},
		Flags: func() *pflag.FlagSet {
			flags, raw, noMarkdown, identityPath = commonFlags{}, false, false, ""
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
			flags.bind(flagSet)
			flagSet.BoolVar(&raw, "raw", false, "show unmasked text where it was recorded")
			flagSet.StringVar(&identityPath, "identity", "", "age identity file for sealed raw text")
			flagSet.BoolVar(&noMarkdown, "no-markdown", false, "print responses as plain text")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 1, "bureau-tracer sessions show <session> [flags]"); err != nil {
				return err
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			recorded, err := loadSession(cfg.Paths.Sessions, args[0])
			if err != nil {
				return err
			}
			identities, err := loadIdentities(identityPath)
			if err != nil {
				return err
			}
			err = stdio.printer().Show(stdio.stdout, *recorded, sessionview.ShowOptions{
				Raw:        raw,
				Identities: identities,
				Markdown:   !noMarkdown,
			})
			if errors.Is(err, sealed.ErrNoIdentity) {
				return cli.Forbidden("%w", err).WithHint("Pass --identity with the age key the raw text was sealed to.")
			}
			if err != nil {
				return cli.Internal("%w", err)
			}
			return nil
		},
	}
}

func sessionsSearchCommand(stdio streams) *cli.Command {
	var flags commonFlags
	var output cli.JSONOutput
	var sessionID string
	var since time.Duration
	var limit, scan int
	return &cli.Command{
		Name:    "search",
		Summary: "Fuzzy-search recorded prompts and responses",
		Description: `Fuzzy-search the masked text of indexed interactions. Matches in
prompts and responses are ranked together, best first.`,
		Usage: "bureau-tracer sessions search <query> [flags]",
		Examples: []cli.Example{
			{Description: "Find prompts about migrations from the last week", Command: "bureau-tracer sessions search 'db migration' --since 168h"},
		},
		Flags: func() *pflag.FlagSet {
			flags, output, sessionID, since, limit, scan = commonFlags{}, cli.JSONOutput{}, "", 0, 0, 0
			flagSet := pflag.NewFlagSet("search", pflag.ContinueOnError)
			flags.bind(flagSet)
			output.AddFlag(flagSet)
			flagSet.StringVar(&sessionID, "session", "", "search one session")
			flagSet.DurationVar(&since, "since", 0, "only interactions newer than this (e.g. 24h)")
			flagSet.IntVarP(&limit, "limit", "n", 20, "maximum hits to print")
			flagSet.IntVar(&scan, "scan", sessionindex.DefaultSearchLimit, "most recent interactions to rank")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return requireArgs(args, 1, "bureau-tracer sessions search <query> [flags]")
			}
			query := strings.Join(args, " ")
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			index, err := openIndex(cfg, logger)
			if err != nil {
				return err
			}
			defer closeLogged(logger, "session index", index)

			filter := sessionindex.SearchFilter{SessionID: sessionID, Limit: scan}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			records, err := index.Search(ctx, filter)
			if err != nil {
				return cli.Transient("%w", err)
			}
			hits := sessionview.Rank(query, records)
			if limit > 0 && len(hits) > limit {
				hits = hits[:limit]
			}
			if done, err := output.EmitJSON(stdio.stdout, hits); done {
				return err
			}
			return stdio.printer().Hits(stdio.stdout, hits)
		},
	}
}

func sessionsBrowseCommand(stdio streams) *cli.Command {
	var flags commonFlags
	var identityPath string
	return &cli.Command{
		Name:    "browse",
		Summary: "Browse sessions interactively",
		Usage:   "bureau-tracer sessions browse [flags]",
		Flags: func() *pflag.FlagSet {
			flags, identityPath = commonFlags{}, ""
			flagSet := pflag.NewFlagSet("browse", pflag.ContinueOnError)
			flags.bind(flagSet)
			flagSet.StringVar(&identityPath, "identity", "", "age identity file for sealed raw text")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 0, "bureau-tracer sessions browse [flags]"); err != nil {
				return err
			}
			if _, ok := stdio.stdoutTerminal(); !ok {
				return cli.Validation("browse needs a terminal").
					WithHint("Use 'bureau-tracer sessions list' or 'sessions show' when output is redirected.")
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			identities, err := loadIdentities(identityPath)
			if err != nil {
				return err
			}
			entries, err := listSessions(cfg.Paths.Sessions)
			if err != nil {
				return err
			}
			if err := sessionview.Browse(entries, sessionview.BrowserOptions{Identities: identities}); err != nil {
				return cli.Internal("%w", err)
			}
			return nil
		},
	}
}

func sessionsStatsCommand(stdio streams) *cli.Command {
	var flags commonFlags
	var output cli.JSONOutput
	return &cli.Command{
		Name:    "stats",
		Summary: "Summarize indexed sessions and detected patterns",
		Usage:   "bureau-tracer sessions stats [flags]",
		Flags: func() *pflag.FlagSet {
			flags, output = commonFlags{}, cli.JSONOutput{}
			flagSet := pflag.NewFlagSet("stats", pflag.ContinueOnError)
			flags.bind(flagSet)
			output.AddFlag(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 0, "bureau-tracer sessions stats [flags]"); err != nil {
				return err
			}
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			index, err := openIndex(cfg, logger)
			if err != nil {
				return err
			}
			defer closeLogged(logger, "session index", index)

			stats, err := index.Stats(ctx)
			if err != nil {
				return cli.Transient("%w", err)
			}
			if done, err := output.EmitJSON(stdio.stdout, stats); done {
				return err
			}
			return stdio.printer().Stats(stdio.stdout, stats)
		},
	}
}

func sessionsReindexCommand(stdio streams) *cli.Command {
	var flags commonFlags
	return &cli.Command{
		Name:    "reindex",
		Summary: "Rebuild the search index from session files",
		Description: `Import every readable session artifact into the index. Artifacts are
authoritative: re-importing a session replaces its indexed rows, so
reindex is safe to repeat.`,
		Usage: "bureau-tracer sessions reindex [flags]",
		Flags: func() *pflag.FlagSet {
			flags = commonFlags{}
			flagSet := pflag.NewFlagSet("reindex", pflag.ContinueOnError)
			flags.bind(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 0, "bureau-tracer sessions reindex [flags]"); err != nil {
				return err
			}
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			if err := cfg.EnsurePaths(); err != nil {
				return cli.Internal("%w", err)
			}
			index, err := openIndex(cfg, logger)
			if err != nil {
				return err
			}
			defer closeLogged(logger, "session index", index)

			entries, err := listSessions(cfg.Paths.Sessions)
			if err != nil {
				return err
			}
			imported, skipped := 0, 0
			for _, entry := range entries {
				if err := ctx.Err(); err != nil {
					return cli.Transient("reindex interrupted after %s: %w", plural(imported, "session"), err)
				}
				if entry.Err != nil {
					logger.Warn("skipping unreadable session", "path", entry.Path, "error", entry.Err)
					skipped++
					continue
				}
				if err := index.Import(ctx, entry.Artifact); err != nil {
					return cli.Transient("importing %s: %w", entry.ID(), err)
				}
				imported++
			}
			fmt.Fprintf(stdio.stdout, "indexed %s", plural(imported, "session"))
			if skipped > 0 {
				fmt.Fprintf(stdio.stdout, ", skipped %d unreadable", skipped)
			}
			fmt.Fprintln(stdio.stdout)
			return nil
		},
	}
}

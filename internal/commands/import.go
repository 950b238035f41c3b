package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bankfeed-dev/bankfeed/internal/auditlog"
	"github.com/bankfeed-dev/bankfeed/internal/config"
	"github.com/bankfeed-dev/bankfeed/internal/gitops"
	"github.com/bankfeed-dev/bankfeed/internal/importer"
	"github.com/bankfeed-dev/bankfeed/internal/journals"
	"github.com/bankfeed-dev/bankfeed/internal/logger"
	"github.com/bankfeed-dev/bankfeed/internal/merge"
	"github.com/bankfeed-dev/bankfeed/internal/model"
	"github.com/bankfeed-dev/bankfeed/internal/normalize"
	"github.com/bankfeed-dev/bankfeed/internal/store"
)

func newImportCommand() *cobra.Command {
	var repoDir string
	var journalID int
	var format string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank files from the import directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			log := logger.New().Level(logger.Level(logLevel))
			return runImport(absDir, journalID, format, log, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")
	cmd.Flags().IntVar(&journalID, "journal", 0, "journal id to import into (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&format, "format", "", "override the journal's parser format")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")

	return cmd
}

func runImport(repoRoot string, journalID int, formatOverride string, log zerolog.Logger, out io.Writer) error {
	cfg, err := config.Load(filepath.Join(repoRoot, "bankfeed.yaml"))
	if err != nil {
		return err
	}

	registry, err := journals.Load(repoRoot)
	if err != nil {
		return err
	}
	journal, ok := registry.Get(journalID)
	if !ok {
		return fmt.Errorf("unknown journal %d", journalID)
	}

	format := journal.Format
	if formatOverride != "" {
		format = formatOverride
	}
	parser := importer.DefaultRegistry().Get(format)
	if parser == nil {
		return fmt.Errorf("no parser for format %q", format)
	}

	files, err := importer.Scan(repoRoot)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Info().Msg("nothing to import")
		return nil
	}

	st, err := store.Open(repoRoot)
	if err != nil {
		return err
	}
	merger := merge.New(st, merge.Policy(cfg.Import.OnAllDuplicates), log)

	report := model.NewImportReport()
	var logEntries []auditlog.Entry
	for _, file := range files {
		prevStmts, prevDups := len(report.StatementIDs), duplicateCount(report)

		if err := importFile(file, parser, journal, merger, report); err != nil {
			return fmt.Errorf("importing %s: %w", file.Name, err)
		}

		logEntries = append(logEntries, auditlog.Entry{
			Timestamp:    time.Now().UTC(),
			File:         file.Name,
			JournalID:    journal.ID,
			StatementIDs: report.StatementIDs[prevStmts:],
			NumIgnored:   duplicateCount(report) - prevDups,
		})
		log.Info().Str("file", file.Name).Msg("imported")
	}

	// All files merged cleanly; make the new state durable.
	if err := st.Commit(); err != nil {
		return err
	}

	for _, file := range files {
		if err := importer.MarkProcessed(repoRoot, file.Name); err != nil {
			return err
		}
	}

	if cfg.Git.AutoCommit && gitops.IsRepo(repoRoot) {
		changed, err := gitops.HasChanges(repoRoot)
		if err != nil {
			return err
		}
		if changed {
			hash, err := gitops.CommitAll(repoRoot, "import: "+commitSubject(files), cfg.Git.AuthorName, cfg.Git.AuthorEmail)
			if err != nil {
				return err
			}
			for i := range logEntries {
				logEntries[i].CommitHash = hash
			}
			log.Info().Str("commit", hash).Msg("committed data repository")
		}
	}

	if err := auditlog.Append(repoRoot, logEntries); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func importFile(file importer.FileInfo, parser importer.Parser, journal model.Journal, merger *merge.Merger, report *model.ImportReport) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("opening: %w", err)
	}
	defer f.Close()

	txns, err := parser.Parse(f)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		return nil
	}

	groups, err := normalize.Normalize(importer.GroupByMonth(txns), journal)
	if err != nil {
		return err
	}
	return merger.Merge(groups, report)
}

func duplicateCount(report *model.ImportReport) int {
	n := 0
	for _, notif := range report.Notifications {
		n += len(notif.Details.IDs)
	}
	return n
}

func commitSubject(files []importer.FileInfo) string {
	if len(files) == 1 {
		return files[0].Name
	}
	return fmt.Sprintf("%d files", len(files))
}

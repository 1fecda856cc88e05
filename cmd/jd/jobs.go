package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jobdeck/jobdeck/internal/analyze"
	"github.com/jobdeck/jobdeck/internal/careerdb/db"
	"github.com/jobdeck/jobdeck/internal/careerdb/schema"
	"github.com/jobdeck/jobdeck/internal/profile"
	"github.com/jobdeck/jobdeck/internal/ui"
)

var jobsCmd = &cobra.Command{
	Use:     "jobs",
	GroupID: "pipeline",
	Short:   "Track job postings through the pipeline",
}

var jobAdd struct {
	company     string
	title       string
	location    string
	url         string
	source      string
	description string
}

var jobsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a job posting",
	Long: `Add a job posting to the pipeline.

With --company and --title the posting is recorded directly; without
them an interactive form collects the details.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		mgr, _ := newSession(cfg, newLogger(cfg))

		if jobAdd.company == "" || jobAdd.title == "" {
			if err := runJobForm(); err != nil {
				fatal(err)
			}
		}

		now := time.Now().UTC()
		job := &schema.Job{
			ID:          schema.NewJobID(jobAdd.company, slugify(jobAdd.title), now),
			Company:     jobAdd.company,
			Title:       jobAdd.title,
			Location:    jobAdd.location,
			URL:         jobAdd.url,
			Source:      jobAdd.source,
			Description: jobAdd.description,
			Status:      schema.JobStatusDiscovered,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := job.Validate(); err != nil {
			fatal(err)
		}

		err := mgr.With(ctx, func(tx *db.Tx) error {
			return tx.UpsertJob(ctx, job)
		})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s Added %s\n", ui.RenderPass("✓"), job.ID)
	},
}

// runJobForm fills the missing jobAdd fields interactively.
func runJobForm() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Company").Value(&jobAdd.company).Validate(huh.ValidateNotEmpty()),
			huh.NewInput().Title("Title").Value(&jobAdd.title).Validate(huh.ValidateNotEmpty()),
			huh.NewInput().Title("Location").Value(&jobAdd.location),
			huh.NewInput().Title("Posting URL").Value(&jobAdd.url),
			huh.NewInput().Title("Source (board, referral, outreach)").Value(&jobAdd.source),
			huh.NewText().Title("Description").Value(&jobAdd.description),
		),
	)
	return form.Run()
}

// slugify reduces a title to the lowercase hyphenated form used in job
// IDs.
func slugify(s string) string {
	var b strings.Builder
	prevHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case !prevHyphen && b.Len() > 0:
			b.WriteByte('-')
			prevHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var jobList struct {
	status  string
	company string
	minFit  int
	limit   int
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked jobs, best fit first",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		mgr, _ := newSession(cfg, newLogger(cfg))

		database, err := openSyncedDB(ctx, mgr)
		if err != nil {
			fatal(err)
		}
		defer database.Close()

		jobs, err := database.ListJobs(ctx, db.ListJobsFilter{
			Status:      jobList.status,
			Company:     jobList.company,
			MinFitScore: jobList.minFit,
			Limit:       jobList.limit,
		})
		if err != nil {
			fatal(err)
		}

		if len(jobs) == 0 {
			fmt.Printf("%s No matching jobs\n", ui.RenderDim("·"))
			return
		}
		for _, job := range jobs {
			fit := "  -"
			if job.FitScore > 0 {
				fit = fmt.Sprintf("%3d", job.FitScore)
			}
			fmt.Printf("%s  %-12s  %s  %s at %s\n",
				fit, job.Status, ui.RenderDim(job.ID), job.Title, job.Company)
		}
	},
}

var jobsAnalyzeCmd = &cobra.Command{
	Use:   "analyze <job-id>",
	Short: "Score a posting against the profile",
	Long: `Score a job posting against the profile using the configured
model and store the verdict on the job.

Requires JOBDECK_ANTHROPIC_API_KEY in the environment.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		mgr, _ := newSession(cfg, newLogger(cfg))

		prof, err := profile.Load(cfg.ProfilePath)
		if err != nil {
			fatal(err)
		}
		analyzer, err := analyze.NewAnthropicAnalyzer(cfg.AnthropicKey, cfg.AnthropicModel)
		if err != nil {
			fatal(err)
		}

		analysis, err := analyze.RecordAnalysis(ctx, mgr, analyzer, prof, args[0])
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s Fit score %d for %s\n\n%s\n", ui.RenderPass("✓"), analysis.FitScore, args[0], analysis.Notes())
	},
}

var jobApply struct {
	resume      string
	coverLetter string
	channel     string
}

var jobsApplyCmd = &cobra.Command{
	Use:   "apply <job-id>",
	Short: "Record a submitted application",
	Long: `Record that an application was submitted for a job and move the
job to the applied status.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		mgr, _ := newSession(cfg, newLogger(cfg))

		err := mgr.With(ctx, func(tx *db.Tx) error {
			job, err := tx.GetJob(ctx, args[0])
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("job %s not found", args[0])
			}

			now := time.Now().UTC()
			if err := tx.RecordApplication(ctx, &schema.Application{
				JobID:          job.ID,
				ResumeVersion:  jobApply.resume,
				CoverLetterKey: jobApply.coverLetter,
				Channel:        jobApply.channel,
				SubmittedAt:    now,
			}); err != nil {
				return err
			}

			job.Status = schema.JobStatusApplied
			job.UpdatedAt = now
			return tx.UpsertJob(ctx, job)
		})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s Recorded application for %s\n", ui.RenderPass("✓"), args[0])
	},
}

var jobsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import jobs from a JSONL file",
	Long: `Import jobs from a JSON Lines file, one job object per line.
Existing jobs with the same ID are overwritten. Pass - to read stdin.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		mgr, _ := newSession(cfg, newLogger(cfg))

		var r io.Reader = os.Stdin
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				fatal(err)
			}
			defer f.Close()
			r = f
		}

		var imported int
		err := mgr.With(ctx, func(tx *db.Tx) error {
			var err error
			imported, err = tx.ImportJSONL(ctx, r)
			return err
		})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s Imported %d jobs\n", ui.RenderPass("✓"), imported)
	},
}

var jobsExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export all jobs to a JSONL file",
	Long:  `Export every tracked job as JSON Lines. Pass - to write stdout.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		mgr, _ := newSession(cfg, newLogger(cfg))

		database, err := openSyncedDB(ctx, mgr)
		if err != nil {
			fatal(err)
		}
		defer database.Close()

		var w io.Writer = os.Stdout
		if args[0] != "-" {
			f, err := os.Create(args[0])
			if err != nil {
				fatal(err)
			}
			defer f.Close()
			w = f
		}

		exported, err := database.ExportJSONL(ctx, w)
		if err != nil {
			fatal(err)
		}
		if args[0] != "-" {
			fmt.Printf("%s Exported %d jobs to %s\n", ui.RenderPass("✓"), exported, args[0])
		}
	},
}

func init() {
	jobsAddCmd.Flags().StringVar(&jobAdd.company, "company", "", "company name")
	jobsAddCmd.Flags().StringVar(&jobAdd.title, "title", "", "job title")
	jobsAddCmd.Flags().StringVar(&jobAdd.location, "location", "", "location")
	jobsAddCmd.Flags().StringVar(&jobAdd.url, "url", "", "posting URL")
	jobsAddCmd.Flags().StringVar(&jobAdd.source, "source", "", "where the posting came from")
	jobsAddCmd.Flags().StringVar(&jobAdd.description, "description", "", "posting description")

	jobsListCmd.Flags().StringVar(&jobList.status, "status", "", "filter by status")
	jobsListCmd.Flags().StringVar(&jobList.company, "company", "", "filter by company")
	jobsListCmd.Flags().IntVar(&jobList.minFit, "min-fit", 0, "minimum fit score")
	jobsListCmd.Flags().IntVar(&jobList.limit, "limit", 0, "maximum rows (0 = all)")

	jobsApplyCmd.Flags().StringVar(&jobApply.resume, "resume", "", "resume version submitted")
	jobsApplyCmd.Flags().StringVar(&jobApply.coverLetter, "cover-letter", "", "object store key of the cover letter")
	jobsApplyCmd.Flags().StringVar(&jobApply.channel, "channel", "", "submission channel (portal, email, referral)")

	jobsCmd.AddCommand(jobsAddCmd, jobsListCmd, jobsAnalyzeCmd, jobsApplyCmd, jobsImportCmd, jobsExportCmd)
	rootCmd.AddCommand(jobsCmd)
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobdeck/jobdeck/internal/profile"
	"github.com/jobdeck/jobdeck/internal/ui"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	GroupID: "pipeline",
	Short:   "Work with the candidate profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Validate and display the profile",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		prof, err := profile.Load(cfg.ProfilePath)
		if err != nil {
			fatal(err)
		}

		fmt.Printf("%s %s\n", ui.RenderPass("✓"), prof.Name)
		if prof.Headline != "" {
			fmt.Printf("   %s\n", prof.Headline)
		}
		if prof.Location != "" {
			fmt.Printf("   %s\n", prof.Location)
		}
		if len(prof.Skills) > 0 {
			fmt.Printf("   Skills: %s\n", strings.Join(prof.SkillNames(), ", "))
		}
		for _, exp := range prof.Experiences {
			until := "present"
			if exp.End != nil {
				until = exp.End.Format("2006-01")
			}
			fmt.Printf("   %s at %s (%s to %s)\n",
				exp.Role, exp.Employer, exp.Start.Format("2006-01"), until)
		}
		fmt.Printf("   %s\n", ui.RenderDim(cfg.ProfilePath))
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}

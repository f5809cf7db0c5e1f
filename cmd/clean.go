package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/anoixa/mozaiek/config"
	"github.com/anoixa/mozaiek/internal/app"
	"github.com/anoixa/mozaiek/internal/memorial"
	"github.com/spf13/cobra"
)

// cleanCmd 清理没有记录引用的存储对象
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete stored photos that no record references",
	Long: `Delete stored photos under memorials/ and memories/ that no record references.
Such objects are left behind when a request fails between storing a photo and
saving its record. Objects younger than --min-age are kept because their
record may still be on its way.`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		minAge, _ := cmd.Flags().GetDuration("min-age")

		if err := runClean(dryRun, memorial.SweepOptions{DryRun: dryRun, MinAge: minAge}); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
	cleanCmd.Flags().Duration("min-age", memorial.DefaultOrphanMinAge, "Keep objects younger than this")
}

// runClean 执行清理
func runClean(dryRun bool, opts memorial.SweepOptions) error {
	config.InitConfig()
	cfg := config.Get()
	// 清理不需要 libvips
	cfg.ImageEngine = "native"

	container := app.NewContainer(cfg)
	if err := container.Init(); err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	report, err := container.GetMemorialService().SweepOrphans(context.Background(), opts)
	if err != nil {
		return err
	}

	printCleanStats(report, dryRun)

	if len(report.Errors) > 0 {
		return fmt.Errorf("encountered %d errors during cleanup", len(report.Errors))
	}
	return nil
}

// printCleanStats 打印清理统计
func printCleanStats(report *memorial.SweepReport, dryRun bool) {
	fmt.Println()
	fmt.Println("========================================")
	if dryRun {
		fmt.Println("       Clean Statistics (dry run)")
	} else {
		fmt.Println("       Clean Statistics")
	}
	fmt.Println("========================================")
	fmt.Printf("Objects scanned:   %d\n", report.Scanned)
	fmt.Printf("Orphans found:     %d\n", len(report.Orphans))
	for ns, n := range report.ByNamespace {
		fmt.Printf("  %-15s  %d\n", ns+"/", n)
	}
	fmt.Printf("Too recent, kept:  %d\n", report.Skipped)
	fmt.Printf("Deleted:           %d\n", report.Deleted)
	fmt.Println("========================================")

	if dryRun {
		for _, key := range report.Orphans {
			fmt.Printf("  would delete %s\n", key)
		}
	}
	if len(report.Errors) > 0 {
		fmt.Println("\nErrors encountered:")
		for _, e := range report.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}

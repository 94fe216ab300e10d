package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codeberg.org/feitsma/stapel/internal/cli"
	"codeberg.org/feitsma/stapel/internal/models"
	"codeberg.org/feitsma/stapel/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	ctx := context.Background()

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(cli.GetOpenAIKey())
		return lister.ListAvailableModels()
	}

	// Create processor
	proc, err := processor.NewProcessor(flags)
	if err != nil {
		return err
	}
	defer proc.Close()

	// Handle --archive flag
	if flags.Archive {
		result, err := proc.ArchiveMedia(ctx)
		if err != nil {
			return fmt.Errorf("failed to archive cards: %w", err)
		}
		fmt.Printf("Cards directory archived to: %s\n", result.ArchivePath)
		if result.Reconciled > 0 {
			fmt.Printf("Updated %d cards whose media moved\n", result.Reconciled)
		}
		return nil
	}

	// Handle --load-frequencies flag
	if flags.FrequencyList != "" {
		count, err := proc.LoadFrequencyList(ctx, flags.FrequencyList)
		if err != nil {
			return err
		}
		fmt.Printf("Loaded %d word frequencies\n", count)
		return nil
	}

	// Handle --regenerate-audio flag
	if flags.RegenerateAudio {
		count, err := proc.RegenerateExpiredAudio(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Regenerated audio for %d cards\n", count)
		return nil
	}

	// Handle --score-card flag
	if flags.ScoreCardID != "" {
		if flags.RecordingPath == "" {
			return fmt.Errorf("--score-card requires --recording")
		}
		score, err := proc.ScoreRecording(ctx, flags.ScoreCardID, flags.RecordingPath)
		if err != nil {
			return err
		}
		fmt.Printf("Heard: %s\n", score.TranscribedText)
		fmt.Printf("IPA: %s\n", score.IPATranscription)
		fmt.Printf("Pronunciation score: %.2f\n", score.PhoneticScore)
		return nil
	}

	// Handle batch processing
	if flags.BatchFile != "" {
		// Process batch file
		if err := proc.ProcessBatch(ctx); err != nil {
			return err
		}
	} else if len(args) > 0 {
		// Process single word
		if err := proc.ProcessSingleWord(ctx, args[0]); err != nil {
			return err
		}
	} else {
		return cmd.Help()
	}

	// Generate Anki file if requested
	if flags.GenerateAnki {
		fmt.Printf("\nGenerating Anki import file...\n")
		outputPath, err := proc.GenerateAnkiFile(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to generate Anki file: %v\n", err)
		} else {
			fmt.Printf("Anki package created: %s\n", outputPath)
		}
	}

	fmt.Printf("\nDone! Materials saved to: %s\n", flags.OutputDir)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/chart-extractor/pkg/batch"
	"github.com/synaptica-ai/chart-extractor/pkg/common/config"
	"github.com/synaptica-ai/chart-extractor/pkg/common/database"
	"github.com/synaptica-ai/chart-extractor/pkg/common/kafka"
	"github.com/synaptica-ai/chart-extractor/pkg/common/logger"
	"github.com/synaptica-ai/chart-extractor/pkg/common/models"
	"github.com/synaptica-ai/chart-extractor/pkg/observability/metrics"
	"github.com/synaptica-ai/chart-extractor/pkg/observability/server"
	"github.com/synaptica-ai/chart-extractor/pkg/render"
	"github.com/synaptica-ai/chart-extractor/pkg/storage"
)

const component = "chart-extractor"

func main() {
	logger.Init()

	rootCmd := &cobra.Command{
		Use:           component,
		Short:         "Clinical chart extraction and enrichment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(runCmd(), renderCmd(), renderWorkerCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [patient-id...]",
		Short: "Extract, enrich and write the records of the given patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			idsFile, _ := cmd.Flags().GetString("ids-file")
			output, _ := cmd.Flags().GetString("output")

			cfg := config.Load()
			if output != "" {
				cfg.OutputPath = output
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ids, err := batch.Load(args, idsFile)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()
			server.Start(ctx, cfg.MetricsAddr, component)

			app, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.pipeline.Run(ctx, ids)
			logger.Log.WithFields(map[string]interface{}{
				"run_id":    report.RunID,
				"requested": report.Requested,
				"extracted": len(report.Records),
				"failed":    len(report.Failures),
				"output":    report.OutputPath,
			}).Info("Batch summary")
			return err
		},
	}
	cmd.Flags().String("ids-file", "", "File with one patient identifier per line")
	cmd.Flags().String("output", "", "Override OUTPUT_PATH for this run")
	return cmd
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [patient-id...]",
		Short: "Render documents from an existing results file or the record store",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			fromStore, _ := cmd.Flags().GetBool("from-store")
			cfg := config.Load()
			if input == "" {
				input = cfg.OutputPath
			}

			ctx, stop := signalContext()
			defer stop()

			var records []*models.PatientRecord
			var loadErr error
			if fromStore {
				if len(args) == 0 {
					return errors.New("render --from-store needs at least one patient id")
				}
				records, loadErr = latestFromStore(ctx, cfg, args)
				if len(records) == 0 && loadErr != nil {
					return loadErr
				}
			} else {
				var err error
				if records, err = storage.ReadJSON(input); err != nil {
					return err
				}
			}
			renderer, err := render.NewTemplateRenderer(cfg.ReportTemplate, cfg.ReportDir)
			if err != nil {
				return err
			}

			errs := []error{loadErr}
			rendered := 0
			for _, rec := range records {
				if ctx.Err() != nil {
					break
				}
				err := renderer.Render(ctx, rec)
				metrics.DocumentRendered(err)
				if err != nil {
					logger.ForPatient(rec.Identifier).WithError(err).Error("Document step failed")
					errs = append(errs, err)
					continue
				}
				rendered++
			}
			logger.Log.WithField("documents", rendered).Info("Rendering finished")
			return errors.Join(errs...)
		},
	}
	cmd.Flags().String("input", "", "Results file (defaults to OUTPUT_PATH)")
	cmd.Flags().Bool("from-store", false, "Render the latest stored record of each given patient")
	return cmd
}

// latestFromStore reads each patient's most recent completed record from Postgres.
func latestFromStore(ctx context.Context, cfg *config.Config, ids []string) ([]*models.PatientRecord, error) {
	db, err := database.GetPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("record store: %w", err)
	}
	defer database.ClosePostgres()
	return storage.NewRecordStore(db).LatestRecords(ctx, ids)
}

func renderWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render-worker",
		Short: "Consume document requests from Kafka and render them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			renderer, err := render.NewTemplateRenderer(cfg.ReportTemplate, cfg.ReportDir)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()
			server.Start(ctx, cfg.MetricsAddr, component+"-render-worker")

			consumer := kafka.NewConsumer(cfg, cfg.KafkaRenderTopic)
			defer consumer.Close()

			logger.Log.WithField("topic", cfg.KafkaRenderTopic).Info("Render worker started")
			err = consumer.Consume(ctx, render.Handler(renderer))
			if errors.Is(err, context.Canceled) {
				logger.Log.Info("Render worker stopped")
				return nil
			}
			return err
		},
	}
}

package migrations

import (
	"context"
	"errors"
	"log/slog"

	"flooring_crm/internal/database"
	"flooring_crm/internal/lifecycle"
	"flooring_crm/internal/models"
	"flooring_crm/internal/repository"

	"gorm.io/gorm"
)

// DefaultChecklistTemplates is the checklist every installation starts with.
var DefaultChecklistTemplates = []models.ChecklistTemplate{
	{ID: lifecycle.TemplateSampleVerification, Label: "Weryfikacja próbki podłogi", Position: 1, Active: true},
	{ID: lifecycle.TemplateSiteMeasurement, Label: "Pomiar na miejscu", Position: 2, OrderType: models.OrderInstallation, Active: true},
	{ID: lifecycle.TemplateDepositConfirmation, Label: "Potwierdzenie wpłaty zaliczki", Position: 3, Active: true},
	{ID: "subfloor_check", Label: "Ocena podłoża (wilgotność, równość)", Position: 4, OrderType: models.OrderInstallation, AllowAttachment: true, Active: true},
	{ID: "delivery_slot", Label: "Uzgodnienie terminu dostawy", Position: 5, OrderType: models.OrderDelivery, Active: true},
	{ID: "site_photos", Label: "Zdjęcia po montażu", Position: 6, OrderType: models.OrderInstallation, AllowAttachment: true, Active: true},
	{ID: "acceptance_protocol", Label: "Protokół odbioru", Position: 7, AllowAttachment: true, Active: true},
}

// RunMigrations migrates the schema and seeds default data.
func RunMigrations(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	logger.Info("running database migrations")

	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	if err := SeedChecklistTemplates(ctx, db, logger); err != nil {
		logger.Warn("failed to seed checklist templates", "error", err)
	}

	logger.Info("database migrations completed")
	return nil
}

// SeedChecklistTemplates inserts default templates that are missing. Existing
// templates are left as operators edited them.
func SeedChecklistTemplates(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	checklistRepo := repository.NewChecklistRepository(db)

	existing, err := checklistRepo.ListTemplates(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[t.ID] = true
	}

	var errs []error
	created := 0
	for _, t := range DefaultChecklistTemplates {
		if have[t.ID] {
			continue
		}
		template := t
		if err := checklistRepo.SaveTemplate(ctx, &template); err != nil {
			errs = append(errs, err)
			continue
		}
		created++
	}

	logger.Info("checklist templates seeded", "created", created)
	return errors.Join(errs...)
}

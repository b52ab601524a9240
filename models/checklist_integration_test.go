package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
)

func setupIntegration(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	pgName, pgPort := startPostgresContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(pgName) })

	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", pgPort)
	t.Setenv("DB_NAME", "checklist_test")
	t.Setenv("DB_SSLMODE", "disable")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	return context.Background()
}

func createViolationOrFatal(t *testing.T, ctx context.Context, text string) *models.Violation {
	t.Helper()
	v, err := models.CreateViolation(ctx, &models.NewViolation{Text: text})
	if err != nil {
		t.Fatalf("CreateViolation(%q): %v", text, err)
	}
	return v
}

func TestChecklistSnapshotIsFrozenAtCreation(t *testing.T) {
	ctx := setupIntegration(t)

	v1 := createViolationOrFatal(t, ctx, "Blocked fire exit")
	v2 := createViolationOrFatal(t, ctx, "Missing signage")

	checklist, err := models.CreateChecklist(ctx, &models.NewChecklist{
		Name:         "Weekly audit",
		Site:         "Office",
		ViolationIds: []int64{int64(v2.ID), int64(v1.ID)},
	})
	if err != nil {
		t.Fatalf("CreateChecklist: %v", err)
	}

	// catalog growth after creation must not leak into the snapshot
	createViolationOrFatal(t, ctx, "Added later")

	detail, err := models.GetChecklist(ctx, checklist.ID)
	if err != nil {
		t.Fatalf("GetChecklist: %v", err)
	}
	if len(detail.Items) != 2 {
		t.Fatalf("expected 2 items; got %d", len(detail.Items))
	}
	if detail.Items[0].ViolationId != v2.ID || detail.Items[1].ViolationId != v1.ID {
		t.Fatalf("expected snapshot order [%d %d]; got [%d %d]",
			v2.ID, v1.ID, detail.Items[0].ViolationId, detail.Items[1].ViolationId)
	}
	for _, item := range detail.Items {
		if item.IsChecked || item.CheckedAt != nil {
			t.Fatalf("expected eager progress rows to start unchecked; got %+v", item)
		}
	}
}

func TestCreateChecklistDefaultsToFullCatalog(t *testing.T) {
	ctx := setupIntegration(t)

	createViolationOrFatal(t, ctx, "One")
	createViolationOrFatal(t, ctx, "Two")
	createViolationOrFatal(t, ctx, "Three")

	checklist, err := models.CreateChecklist(ctx, &models.NewChecklist{
		Name: "Full sweep",
		Site: "Home",
	})
	if err != nil {
		t.Fatalf("CreateChecklist: %v", err)
	}
	if len(checklist.ViolationIds) != 3 {
		t.Fatalf("expected snapshot of full catalog (3 ids); got %v", checklist.ViolationIds)
	}
	for i := 1; i < len(checklist.ViolationIds); i++ {
		if checklist.ViolationIds[i-1] >= checklist.ViolationIds[i] {
			t.Fatalf("expected ascending id snapshot; got %v", checklist.ViolationIds)
		}
	}

	progress, err := models.GetChecklistProgress(ctx, checklist.ID)
	if err != nil {
		t.Fatalf("GetChecklistProgress: %v", err)
	}
	if len(progress) != 3 {
		t.Fatalf("expected 3 progress rows; got %d", len(progress))
	}
}

func TestReorderViolationsRollsBackOnUnknownId(t *testing.T) {
	ctx := setupIntegration(t)

	v1 := createViolationOrFatal(t, ctx, "Original one")
	v2 := createViolationOrFatal(t, ctx, "Original two")

	err := models.ReorderViolations(ctx, []models.ViolationOrderInput{
		{Id: v1.ID, Text: "Renamed one"},
		{Id: 999999, Text: "Ghost"},
		{Id: v2.ID, Text: "Renamed two"},
	})
	if err == nil {
		t.Fatal("expected reorder with unknown id to fail")
	}

	// the batch is atomic: the first write must have been rolled back
	after, err := models.GetViolations(ctx)
	if err != nil {
		t.Fatalf("GetViolations: %v", err)
	}
	for _, v := range after {
		if v.ID == v1.ID && v.Text != "Original one" {
			t.Fatalf("expected rollback to restore %q; got %q", "Original one", v.Text)
		}
	}

	if err := models.ReorderViolations(ctx, []models.ViolationOrderInput{
		{Id: v1.ID, Text: "Swapped two"},
		{Id: v2.ID, Text: "Swapped one"},
	}); err != nil {
		t.Fatalf("ReorderViolations: %v", err)
	}
}

func TestProgressUpsertToggleAndReset(t *testing.T) {
	ctx := setupIntegration(t)

	v := createViolationOrFatal(t, ctx, "Spill not cleaned")
	checklist, err := models.CreateChecklist(ctx, &models.NewChecklist{
		Name:         "Toggle test",
		Site:         "Gym",
		ViolationIds: []int64{int64(v.ID)},
	})
	if err != nil {
		t.Fatalf("CreateChecklist: %v", err)
	}

	note := "aisle 4"
	checked, err := models.UpsertChecklistProgress(ctx, checklist.ID, v.ID, &models.ProgressInput{
		IsChecked: true,
		Notes:     &note,
	})
	if err != nil {
		t.Fatalf("UpsertChecklistProgress(check): %v", err)
	}
	if !checked.IsChecked || checked.CheckedAt == nil {
		t.Fatalf("expected checked row with timestamp; got %+v", checked)
	}
	if checked.Notes == nil || *checked.Notes != note {
		t.Fatalf("expected notes %q; got %v", note, checked.Notes)
	}

	unchecked, err := models.UpsertChecklistProgress(ctx, checklist.ID, v.ID, &models.ProgressInput{
		IsChecked: false,
	})
	if err != nil {
		t.Fatalf("UpsertChecklistProgress(uncheck): %v", err)
	}
	if unchecked.ID != checked.ID {
		t.Fatalf("expected upsert to reuse the eager row (id %d); got %d", checked.ID, unchecked.ID)
	}
	if unchecked.IsChecked || unchecked.CheckedAt != nil || unchecked.Notes != nil {
		t.Fatalf("expected uncheck to clear state; got %+v", unchecked)
	}

	if _, err := models.UpsertChecklistProgress(ctx, checklist.ID, v.ID, &models.ProgressInput{IsChecked: true}); err != nil {
		t.Fatalf("UpsertChecklistProgress(re-check): %v", err)
	}
	if err := models.ResetChecklistProgress(ctx, checklist.ID); err != nil {
		t.Fatalf("ResetChecklistProgress: %v", err)
	}
	// reset is idempotent
	if err := models.ResetChecklistProgress(ctx, checklist.ID); err != nil {
		t.Fatalf("ResetChecklistProgress(second): %v", err)
	}

	progress, err := models.GetChecklistProgress(ctx, checklist.ID)
	if err != nil {
		t.Fatalf("GetChecklistProgress: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("expected 1 progress row; got %d", len(progress))
	}
	if progress[0].IsChecked || progress[0].CheckedAt != nil || progress[0].Notes != nil {
		t.Fatalf("expected reset row; got %+v", progress[0])
	}
	if progress[0].Text != "Spill not cleaned" {
		t.Fatalf("expected joined violation text; got %q", progress[0].Text)
	}
}

func TestGetChecklistsReportsProgressCounts(t *testing.T) {
	ctx := setupIntegration(t)

	v1 := createViolationOrFatal(t, ctx, "A")
	v2 := createViolationOrFatal(t, ctx, "B")

	checklist, err := models.CreateChecklist(ctx, &models.NewChecklist{
		Name:         "Counted",
		Site:         "School",
		ViolationIds: []int64{int64(v1.ID), int64(v2.ID)},
	})
	if err != nil {
		t.Fatalf("CreateChecklist: %v", err)
	}
	if _, err := models.UpsertChecklistProgress(ctx, checklist.ID, v1.ID, &models.ProgressInput{IsChecked: true}); err != nil {
		t.Fatalf("UpsertChecklistProgress: %v", err)
	}

	summaries, err := models.GetChecklists(ctx)
	if err != nil {
		t.Fatalf("GetChecklists: %v", err)
	}
	var found *models.ChecklistSummary
	for _, s := range summaries {
		if s.ID == checklist.ID {
			found = s
		}
	}
	if found == nil {
		t.Fatalf("checklist %d missing from listing", checklist.ID)
	}
	if found.TotalItems != 2 || found.CompletedItems != 1 {
		t.Fatalf("expected counts 2/1; got %d/%d", found.TotalItems, found.CompletedItems)
	}
}

func TestCompleteAndDeleteChecklist(t *testing.T) {
	ctx := setupIntegration(t)

	v := createViolationOrFatal(t, ctx, "C")
	checklist, err := models.CreateChecklist(ctx, &models.NewChecklist{
		Name:         "Terminal",
		Site:         "Office",
		ViolationIds: []int64{int64(v.ID)},
	})
	if err != nil {
		t.Fatalf("CreateChecklist: %v", err)
	}

	completed, err := models.CompleteChecklist(ctx, checklist.ID)
	if err != nil {
		t.Fatalf("CompleteChecklist: %v", err)
	}
	if completed.Status != models.ChecklistStatusCompleted {
		t.Fatalf("expected status completed; got %q", completed.Status)
	}

	if _, err := models.DeleteChecklist(ctx, checklist.ID); err != nil {
		t.Fatalf("DeleteChecklist: %v", err)
	}
	if _, err := models.GetChecklist(ctx, checklist.ID); err == nil {
		t.Fatal("expected deleted checklist to be gone")
	}
	// progress rows cascade with the checklist
	progress, err := models.GetChecklistProgress(ctx, checklist.ID)
	if err != nil {
		t.Fatalf("GetChecklistProgress: %v", err)
	}
	if len(progress) != 0 {
		t.Fatalf("expected cascade to remove progress rows; got %d", len(progress))
	}
}

func TestUpdateChecklistPartialFields(t *testing.T) {
	ctx := setupIntegration(t)

	checklist, err := models.CreateChecklist(ctx, &models.NewChecklist{
		Name:         "Before",
		Site:         "Office",
		ViolationIds: []int64{},
	})
	if err != nil {
		t.Fatalf("CreateChecklist: %v", err)
	}

	name := "After"
	updated, err := models.UpdateChecklist(ctx, checklist.ID, &models.ChecklistUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateChecklist: %v", err)
	}
	if updated.Name != "After" || updated.Site != "Office" {
		t.Fatalf("expected only name updated; got %+v", updated)
	}

	if _, err := models.UpdateChecklist(ctx, checklist.ID, &models.ChecklistUpdate{}); err == nil {
		t.Fatal("expected empty update to be rejected")
	}
}

func TestLoginRequiresAllowListAndAcceptsHashedOrPlaintext(t *testing.T) {
	ctx := setupIntegration(t)
	db := config.GetDB()

	hashed, err := utils.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	users := []models.User{
		{EmpId: "EMP-HASH", Password: string(hashed)},
		{EmpId: "EMP-PLAIN", Password: "plainpw"},
		{EmpId: "EMP-OUTSIDER", Password: "whatever"},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}
	authorized := []models.AuthorizedPerson{{EmpId: "EMP-HASH"}, {EmpId: "EMP-PLAIN"}}
	if err := db.Create(&authorized).Error; err != nil {
		t.Fatalf("seed allow-list: %v", err)
	}

	info, err := models.Login(ctx, "EMP-HASH", "s3cret")
	if err != nil {
		t.Fatalf("Login(hashed): %v", err)
	}
	if info.Token == "" || info.EmpId != "EMP-HASH" {
		t.Fatalf("unexpected login info: %+v", info)
	}
	parsed, err := utils.JwtValidate(info.Token)
	if err != nil || !parsed.Valid {
		t.Fatalf("expected valid token; err=%v", err)
	}

	if _, err := models.Login(ctx, "EMP-PLAIN", "plainpw"); err != nil {
		t.Fatalf("Login(plaintext): %v", err)
	}

	if _, err := models.Login(ctx, "EMP-HASH", "wrong"); err != models.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for bad password; got %v", err)
	}
	// valid credentials but not on the allow-list
	if _, err := models.Login(ctx, "EMP-OUTSIDER", "whatever"); err != models.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials off the allow-list; got %v", err)
	}
	if _, err := models.Login(ctx, "EMP-MISSING", "x"); err != models.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown user; got %v", err)
	}
}

func startPostgresContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("checklist-test-pg-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "POSTGRES_PASSWORD=testpw",
		"-e", "POSTGRES_DB=checklist_test",
		"-p", "127.0.0.1:0:5432",
		"postgres:16-alpine",
	)
	if err != nil {
		t.Fatalf("start postgres container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "5432/tcp")
	if err != nil {
		t.Fatalf("postgres docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "pg_isready", "-U", "postgres", "-d", "checklist_test")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("postgres did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}

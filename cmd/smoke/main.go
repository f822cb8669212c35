package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/google/uuid"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase  string
	token    string
	client   = &http.Client{Timeout: 30 * time.Second}
	planDate string
	weekEnd  string

	flourID, saltID uuid.UUID
	recipeID        = uuid.New()
	manualItemID    string
)

func main() {
	fmt.Println("=== MealCart E2E Smoke Test ===")
	fmt.Println()

	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	token = getEnv("SMOKE_TOKEN", "")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	today := time.Now()
	planDate = today.Format("2006-01-02")
	weekEnd = today.AddDate(0, 0, 6).Format("2006-01-02")

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Dev Token", testDevToken},
		{"Resolve Ingredients", testResolveIngredients},
		{"Save Recipe Lines", testSaveRecipe},
		{"Plan Recipe", testPlanRecipe},
		{"Grocery List Has Lines", testGroceryHasLines},
		{"Add Manual Item", testAddManualItem},
		{"Unplan Recipe", testUnplanRecipe},
		{"Manual Item Survives", testManualItemSurvives},
		{"Export Text", testExportText},
		{"Cleanup", testCleanup},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("SMOKE TEST FAILED")
		os.Exit(1)
	}
	fmt.Println("ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	_, err := do(http.MethodGet, "/healthz", nil, http.StatusOK, nil)
	return err
}

// testDevToken fetches a dev token when none was given. Servers running
// without dev auth answer 404, which leaves requests anonymous.
func testDevToken() error {
	if token != "" {
		return nil
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	status, err := do(http.MethodPost, "/v1/auth/dev", map[string]string{"user_id": "smoke-" + uuid.NewString()[:8]}, 0, &resp)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		token = resp.AccessToken
		return nil
	case http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("unexpected status %d", status)
	}
}

func testResolveIngredients() error {
	create := func(name string) (uuid.UUID, error) {
		var resp struct {
			Ingredient struct {
				ID uuid.UUID `json:"id"`
			} `json:"ingredient"`
		}
		status, err := do(http.MethodPost, "/v1/ingredients", map[string]any{"name": name, "confirm": true}, 0, &resp)
		if err != nil {
			return uuid.Nil, err
		}
		if status != http.StatusCreated && status != http.StatusOK {
			return uuid.Nil, fmt.Errorf("create %q: status=%d", name, status)
		}
		return resp.Ingredient.ID, nil
	}

	var err error
	if flourID, err = create("smoke flour"); err != nil {
		return err
	}
	saltID, err = create("smoke salt")
	return err
}

func testSaveRecipe() error {
	body := map[string]any{
		"title": "Smoke pancakes",
		"lines": []map[string]any{
			{"ingredient_id": flourID, "quantity": "1 1/2", "unit": "cup"},
			{"ingredient_id": flourID, "quantity": "2", "unit": "tbsp"},
			{"ingredient_id": saltID},
		},
	}
	_, err := do(http.MethodPut, "/v1/recipes/"+recipeID.String()+"/ingredients", body, http.StatusOK, nil)
	return err
}

func testPlanRecipe() error {
	_, err := do(http.MethodPost, "/v1/meal/plan/entries",
		map[string]any{"date": planDate, "recipe_id": recipeID}, http.StatusCreated, nil)
	return err
}

type groceryList struct {
	Lines []struct {
		Key     string `json:"key"`
		Name    string `json:"name"`
		Mixed   bool   `json:"mixed"`
		ToTaste bool   `json:"to_taste"`
	} `json:"lines"`
	Manual []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"manual"`
}

func fetchList() (groceryList, error) {
	var list groceryList
	_, err := do(http.MethodGet, "/v1/grocery?start="+planDate+"&end="+weekEnd, nil, http.StatusOK, &list)
	return list, err
}

func testGroceryHasLines() error {
	list, err := fetchList()
	if err != nil {
		return err
	}
	var flour, salt bool
	for _, l := range list.Lines {
		switch l.Name {
		case "smoke flour":
			flour = l.Mixed
		case "smoke salt":
			salt = l.ToTaste
		}
	}
	if !flour || !salt {
		return fmt.Errorf("expected merged flour and to-taste salt, got %+v", list.Lines)
	}
	return nil
}

func testAddManualItem() error {
	var resp struct {
		ID string `json:"id"`
	}
	_, err := do(http.MethodPost, "/v1/grocery/manual", map[string]string{"label": "Smoke paper towels"}, http.StatusCreated, &resp)
	manualItemID = resp.ID
	return err
}

func testUnplanRecipe() error {
	_, err := do(http.MethodDelete, "/v1/meal/plan/entries?date="+planDate+"&recipe_id="+recipeID.String(), nil, http.StatusNoContent, nil)
	return err
}

func testManualItemSurvives() error {
	list, err := fetchList()
	if err != nil {
		return err
	}
	for _, l := range list.Lines {
		if l.Name == "smoke flour" || l.Name == "smoke salt" {
			return fmt.Errorf("line %q still present after unplanning", l.Name)
		}
	}
	for _, m := range list.Manual {
		if m.ID == manualItemID {
			return nil
		}
	}
	return fmt.Errorf("manual item %s missing", manualItemID)
}

func testExportText() error {
	req, err := http.NewRequest(http.MethodGet, apiBase+"/v1/grocery/export?format=text&start="+planDate+"&end="+weekEnd, nil)
	if err != nil {
		return err
	}
	addAuth(req)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}
	if !bytes.Contains(body, []byte("Smoke paper towels")) {
		return fmt.Errorf("export is missing the manual item:\n%s", body)
	}
	return nil
}

func testCleanup() error {
	if _, err := do(http.MethodDelete, "/v1/grocery/manual/"+manualItemID, nil, http.StatusNoContent, nil); err != nil {
		return err
	}
	_, err := do(http.MethodDelete, "/v1/recipes/"+recipeID.String(), nil, http.StatusNoContent, nil)
	return err
}

// do sends a JSON request. want 0 accepts any status; out, when set, receives
// the decoded body of a 2xx response.
func do(method, path string, body any, want int, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if want != 0 && resp.StatusCode != want {
		return resp.StatusCode, fmt.Errorf("%s %s: status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil && resp.StatusCode/100 == 2 && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

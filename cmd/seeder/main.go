package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

var (
	errConflict  = errors.New("already exists")
	errForbidden = errors.New("forbidden")
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// demoVehicles is the demo fleet spread over the three depots.
var demoVehicles = []models.Vehicle{
	{ID: "TRK-001", Type: models.VehicleTruck, LocationBase: models.DepotA, Mileage: 45680, LastServiceDate: day(2024, 12, 15), ServiceInterval: models.IntervalMonthly, Status: models.VehicleActive},
	{ID: "TRK-002", Type: models.VehicleTruck, LocationBase: models.DepotB, Mileage: 32450, LastServiceDate: day(2024, 12, 20), ServiceInterval: models.IntervalMonthly, Status: models.VehicleActive},
	{ID: "VAN-205", Type: models.VehicleVan, LocationBase: models.DepotA, Mileage: 28900, LastServiceDate: day(2024, 12, 18), ServiceInterval: models.IntervalBiWeekly, Status: models.VehicleActive},
	{ID: "VAN-206", Type: models.VehicleVan, LocationBase: models.FieldOffice, Mileage: 19800, LastServiceDate: day(2024, 12, 22), ServiceInterval: models.IntervalWeekly, Status: models.VehicleActive},
	{ID: "VAN-207", Type: models.VehicleVan, LocationBase: models.DepotB, Mileage: 41200, LastServiceDate: day(2024, 12, 10), ServiceInterval: models.IntervalMonthly, Status: models.VehicleActive},
	{ID: "CAR-101", Type: models.VehicleCar, LocationBase: models.FieldOffice, Mileage: 15600, LastServiceDate: day(2024, 12, 25), ServiceInterval: models.IntervalWeekly, Status: models.VehicleActive},
	{ID: "CAR-102", Type: models.VehicleCar, LocationBase: models.DepotA, Mileage: 23400, LastServiceDate: day(2024, 12, 12), ServiceInterval: models.IntervalBiWeekly, Status: models.VehicleActive},
	{ID: "MOTO-301", Type: models.VehicleMotorcycle, LocationBase: models.DepotB, Mileage: 8900, LastServiceDate: day(2024, 12, 28), ServiceInterval: models.IntervalWeekly, Status: models.VehicleActive},
	{ID: "MOTO-302", Type: models.VehicleMotorcycle, LocationBase: models.FieldOffice, Mileage: 12300, LastServiceDate: day(2024, 12, 14), ServiceInterval: models.IntervalBiWeekly, Status: models.VehicleActive},
	{ID: "TRK-003", Type: models.VehicleTruck, LocationBase: models.DepotA, Mileage: 67800, LastServiceDate: day(2024, 12, 8), ServiceInterval: models.IntervalMonthly, Status: models.VehicleActive},
	{ID: "VAN-208", Type: models.VehicleVan, LocationBase: models.DepotB, Mileage: 35600, LastServiceDate: day(2024, 12, 16), ServiceInterval: models.IntervalBiWeekly, Status: models.VehicleActive},
	{ID: "CAR-103", Type: models.VehicleCar, LocationBase: models.FieldOffice, Mileage: 29100, LastServiceDate: day(2024, 12, 11), ServiceInterval: models.IntervalMonthly, Status: models.VehicleActive},
}

var demoTechnicians = []models.Technician{
	{ID: "TECH-001", Name: "John Martinez", AssignedDepots: []models.Depot{models.DepotA}, MaxTasks: 3, Email: "j.martinez@logistics.com", Phone: "+1 (555) 123-4567"},
	{ID: "TECH-002", Name: "Sarah Chen", AssignedDepots: []models.Depot{models.DepotA, models.FieldOffice}, MaxTasks: 3, Email: "s.chen@logistics.com", Phone: "+1 (555) 234-5678"},
	{ID: "TECH-003", Name: "Michael Rodriguez", AssignedDepots: []models.Depot{models.DepotB}, MaxTasks: 3, Email: "m.rodriguez@logistics.com", Phone: "+1 (555) 345-6789"},
	{ID: "TECH-004", Name: "Emily Davis", AssignedDepots: []models.Depot{models.DepotB, models.FieldOffice}, MaxTasks: 3, Email: "e.davis@logistics.com", Phone: "+1 (555) 456-7890"},
	{ID: "TECH-005", Name: "David Thompson", AssignedDepots: []models.Depot{models.FieldOffice}, MaxTasks: 3, Email: "d.thompson@logistics.com", Phone: "+1 (555) 567-8901"},
}

// apiClient talks to the maintenance API with an optional bearer token.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{baseURL: baseURL, token: token, http: &http.Client{Timeout: 10 * time.Second}}
}

// post sends body as JSON and decodes the response into out when out is non-nil.
// A 409 is reported as errConflict and a 403 as errForbidden.
func (c *apiClient) post(path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusConflict:
		return errConflict
	case http.StatusForbidden:
		return errForbidden
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s failed with status %d: %s", path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// login registers the admin account when missing and stores a fresh token.
// The API only lets the first admin register without a token, so a 403 means
// an admin already exists and the credentials are tried as they are.
func (c *apiClient) login(username, password string) error {
	register := models.RegisterRequest{
		Username:  username,
		Email:     username + "@logistics.com",
		Password:  password,
		FirstName: "Fleet",
		LastName:  "Admin",
		Role:      models.RoleAdmin,
	}
	if err := c.post("/auth/register", register, nil); err != nil && !errors.Is(err, errConflict) && !errors.Is(err, errForbidden) {
		return err
	}

	var resp models.LoginResponse
	if err := c.post("/auth/login", models.LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	log.WithField("username", username).Info("Logged in")
	return nil
}

type seedResult struct {
	Created  int
	Existing int
	Failed   int
}

func (r *seedResult) record(err error) {
	switch {
	case err == nil:
		r.Created++
	case errors.Is(err, errConflict):
		r.Existing++
	default:
		r.Failed++
	}
}

func seedVehicles(c *apiClient, vehicles []models.Vehicle) seedResult {
	var result seedResult
	for _, v := range vehicles {
		err := c.post("/vehicles", v, nil)
		result.record(err)
		entry := log.WithFields(log.Fields{"vehicle_id": v.ID, "type": v.Type, "depot": v.LocationBase})
		if err != nil && !errors.Is(err, errConflict) {
			entry.WithError(err).Error("Failed to create vehicle")
			continue
		}
		entry.Debug("Seeded vehicle")
	}
	return result
}

func seedTechnicians(c *apiClient, technicians []models.Technician) seedResult {
	var result seedResult
	for _, t := range technicians {
		err := c.post("/technicians", t, nil)
		result.record(err)
		entry := log.WithFields(log.Fields{"technician_id": t.ID, "name": t.Name})
		if err != nil && !errors.Is(err, errConflict) {
			entry.WithError(err).Error("Failed to create technician")
			continue
		}
		entry.Debug("Seeded technician")
	}
	return result
}

type assignmentSummary struct {
	Assigned     []models.MaintenanceTask `json:"assigned"`
	StillPending int                      `json:"still_pending"`
}

// runCycle previews generation, accepts every proposed task and auto-assigns.
func runCycle(c *apiClient, force bool) (int, assignmentSummary, error) {
	var preview []models.MaintenanceTask
	if err := c.post("/tasks/generate", map[string]bool{"force": force}, &preview); err != nil {
		return 0, assignmentSummary{}, err
	}
	if len(preview) > 0 {
		if err := c.post("/tasks", map[string]interface{}{"tasks": preview}, nil); err != nil {
			return 0, assignmentSummary{}, err
		}
	}

	var summary assignmentSummary
	if err := c.post("/tasks/assign", nil, &summary); err != nil {
		return len(preview), assignmentSummary{}, err
	}
	return len(preview), summary, nil
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	apiURL := envOr("API_BASE_URL", "http://localhost:8080/api")
	client := newAPIClient(apiURL, os.Getenv("SEED_AUTH_TOKEN"))

	log.WithField("api_url", apiURL).Info("Seeding demo fleet")

	if client.token == "" {
		username := envOr("SEED_ADMIN_USERNAME", "admin")
		password := envOr("SEED_ADMIN_PASSWORD", "admin12345")
		if err := client.login(username, password); err != nil {
			log.WithError(err).Fatal("Failed to authenticate. Ensure the API is reachable.")
		}
	}

	vehicles := seedVehicles(client, demoVehicles)
	technicians := seedTechnicians(client, demoTechnicians)
	log.WithFields(log.Fields{
		"vehicles_created":     vehicles.Created,
		"vehicles_existing":    vehicles.Existing,
		"technicians_created":  technicians.Created,
		"technicians_existing": technicians.Existing,
	}).Info("Seeding completed")

	if vehicles.Failed+technicians.Failed > 0 {
		log.WithField("failed", vehicles.Failed+technicians.Failed).Warn("Some records could not be seeded")
	}

	if !envBool("SEED_RUN_CYCLE") {
		return
	}

	generated, summary, err := runCycle(client, envBool("SEED_FORCE"))
	if err != nil {
		log.WithError(err).Fatal("Maintenance cycle failed")
	}
	log.WithFields(log.Fields{
		"generated":     generated,
		"assigned":      len(summary.Assigned),
		"still_pending": summary.StillPending,
	}).Info("Maintenance cycle completed")
}

// Command seeder populates a running server with demo data through its public
// API: a demo account, a small garage of cars, service history, reminders and
// a couple of known issues.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

var authToken string

func authorizedRequest(method, url string, body interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

// login registers the demo account if needed and stores its token.
func login(apiURL, username, password string) error {
	creds := map[string]string{
		"username":   username,
		"password":   password,
		"email":      username + "@example.com",
		"first_name": "Demo",
		"last_name":  "Driver",
	}

	resp, err := authorizedRequest(http.MethodPost, apiURL+"/auth/register", creds)
	if err != nil {
		return fmt.Errorf("register failed: %w", err)
	}
	if resp.StatusCode == http.StatusConflict {
		resp.Body.Close()
		resp, err = authorizedRequest(http.MethodPost, apiURL+"/auth/login", creds)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	authToken = result.Token
	return nil
}

type demoCar struct {
	Make     string
	Model    string
	Year     int
	Plate    string
	Odometer int
}

var demoCars = []demoCar{
	{Make: "Fiat", Model: "Panda", Year: 2018, Plate: "FA123BC", Odometer: 61000},
	{Make: "Alfa Romeo", Model: "Giulietta", Year: 2016, Plate: "EZ456XY", Odometer: 98000},
	{Make: "Lancia", Model: "Ypsilon", Year: 2021, Plate: "GH789KL", Odometer: 23000},
}

var demoServices = []string{
	"Cambio olio e filtro",
	"Sostituzione filtro aria",
	"Sostituzione pastiglie freni",
	"Cambio pneumatici",
}

func createCar(apiURL string, car demoCar) (string, error) {
	resp, err := authorizedRequest(http.MethodPost, apiURL+"/client/cars", map[string]interface{}{
		"make": car.Make, "model": car.Model, "year": car.Year,
		"license_plate": car.Plate, "odometer": car.Odometer,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create car: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("car creation failed with status: %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	id, ok := result["id"].(string)
	if !ok {
		return "", fmt.Errorf("invalid car ID in response")
	}

	log.WithFields(log.Fields{
		"car_id": id,
		"make":   car.Make,
		"model":  car.Model,
	}).Info("Created car")
	return id, nil
}

func seedHistory(apiURL, carID string, car demoCar) {
	// A few services spread over the car's past.
	for i := 1; i <= 3; i++ {
		service := demoServices[rand.Intn(len(demoServices))]
		date := time.Now().AddDate(0, -6*i, 0).Format("2006-01-02")
		odometer := car.Odometer - i*12000
		if odometer < 0 {
			odometer = 0
		}

		resp, err := authorizedRequest(http.MethodPost, apiURL+"/client/cars/"+carID+"/maintenance", map[string]interface{}{
			"description": service,
			"date":        date,
			"odometer":    odometer,
			"cost":        50 + rand.Float64()*300,
		})
		if err != nil {
			log.WithError(err).Error("Failed to add maintenance record")
			continue
		}
		resp.Body.Close()
	}

	resp, err := authorizedRequest(http.MethodPost, apiURL+"/client/cars/"+carID+"/reminders", map[string]interface{}{
		"description":   "Assicurazione",
		"next_due_date": time.Now().AddDate(0, 2, 0).Format("2006-01-02"),
		"amount":        350 + rand.Float64()*300,
		"frequency":     "annual",
	})
	if err != nil {
		log.WithError(err).Error("Failed to add reminder")
	} else {
		resp.Body.Close()
	}

	resp, err = authorizedRequest(http.MethodPost, apiURL+"/client/cars/"+carID+"/reminders", map[string]interface{}{
		"description":   "Bollo auto",
		"next_due_date": time.Now().AddDate(0, 5, 0).Format("2006-01-02"),
		"amount":        180,
		"frequency":     "annual",
	})
	if err != nil {
		log.WithError(err).Error("Failed to add reminder")
	} else {
		resp.Body.Close()
	}

	if rand.Intn(2) == 0 {
		resp, err = authorizedRequest(http.MethodPost, apiURL+"/client/cars/"+carID+"/issues", map[string]interface{}{
			"description": "Rumore sospensione anteriore",
		})
		if err != nil {
			log.WithError(err).Error("Failed to add issue")
		} else {
			resp.Body.Close()
		}
	}
}

// runSimulation exercises the projection endpoint for the first car.
func runSimulation(apiURL, carID string, targetMileage int) {
	resp, err := authorizedRequest(http.MethodPost, apiURL+"/client/simulate", map[string]interface{}{
		"car_id":         carID,
		"target_mileage": targetMileage,
	})
	if err != nil {
		log.WithError(err).Error("Simulation request failed")
		return
	}
	defer resp.Body.Close()

	var result struct {
		Projected []struct {
			Description string `json:"description"`
			Odometer    int    `json:"odometer"`
		} `json:"projected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.WithError(err).Error("Failed to decode simulation result")
		return
	}
	log.WithFields(log.Fields{
		"car_id":   carID,
		"target":   targetMileage,
		"services": len(result.Projected),
	}).Info("Simulation completed")
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api/v1"
	}
	username := os.Getenv("SEED_USERNAME")
	if username == "" {
		username = "demo"
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "demopassword"
	}

	log.WithField("api_url", apiURL).Info("Seeding demo data")

	if err := login(apiURL, username, password); err != nil {
		log.WithError(err).Fatal("Authentication failed. Ensure the server is running.")
	}

	carIDs := make([]string, 0, len(demoCars))
	for _, car := range demoCars {
		id, err := createCar(apiURL, car)
		if err != nil {
			log.WithError(err).Error("Failed to create car")
			continue
		}
		seedHistory(apiURL, id, car)
		carIDs = append(carIDs, id)
	}

	if len(carIDs) == 0 {
		log.Error("No cars created. Exiting.")
		return
	}

	runSimulation(apiURL, carIDs[0], demoCars[0].Odometer+30000)
	log.WithField("cars", len(carIDs)).Info("Seeding completed")
}

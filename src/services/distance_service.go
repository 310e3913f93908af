package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/username/dealfolio/backend/src/logger"
)

const (
	mapboxGeocodingBaseURL  = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	mapboxDirectionsBaseURL = "https://api.mapbox.com/directions/v5/mapbox/driving"

	metersPerMile = 1609.344
)

// Structs for Mapbox API responses
type mapboxGeocodeResponse struct {
	Features []struct {
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"` // [longitude, latitude]
	} `json:"features"`
}

type mapboxDirectionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

type distanceServiceImpl struct {
	httpClient  http.Client
	accessToken string
}

// NewDistanceService creates a Mapbox-backed distance service. With an empty
// access token every lookup fails and callers fall back to the user-supplied
// distance.
func NewDistanceService(accessToken string) DistanceService {
	return &distanceServiceImpl{
		httpClient: http.Client{
			Timeout: 20 * time.Second,
		},
		accessToken: accessToken,
	}
}

// DrivingDistanceMiles geocodes both addresses and asks the directions API for
// the driving distance between them, in miles rounded by the caller.
func (s *distanceServiceImpl) DrivingDistanceMiles(ctx context.Context, fromAddress, toAddress string) (float64, error) {
	if s.accessToken == "" {
		return 0, fmt.Errorf("mapbox access token not configured")
	}
	if fromAddress == "" || toAddress == "" {
		return 0, fmt.Errorf("both addresses are required for distance lookup")
	}

	fromLng, fromLat, err := s.geocode(ctx, fromAddress)
	if err != nil {
		return 0, fmt.Errorf("failed to geocode origin %q: %w", fromAddress, err)
	}
	toLng, toLat, err := s.geocode(ctx, toAddress)
	if err != nil {
		return 0, fmt.Errorf("failed to geocode destination %q: %w", toAddress, err)
	}

	directionsURL := fmt.Sprintf("%s/%f,%f;%f,%f?access_token=%s&overview=false",
		mapboxDirectionsBaseURL, fromLng, fromLat, toLng, toLat, url.QueryEscape(s.accessToken))

	var directions mapboxDirectionsResponse
	if err := s.getJSON(ctx, directionsURL, &directions); err != nil {
		return 0, fmt.Errorf("directions request failed: %w", err)
	}
	if directions.Code != "Ok" || len(directions.Routes) == 0 {
		return 0, fmt.Errorf("no driving route found between %q and %q", fromAddress, toAddress)
	}

	miles := directions.Routes[0].Distance / metersPerMile
	logger.L.Debug("Distance lookup succeeded", "from", fromAddress, "to", toAddress, "miles", miles)
	return miles, nil
}

func (s *distanceServiceImpl) geocode(ctx context.Context, address string) (lng, lat float64, err error) {
	geocodeURL := fmt.Sprintf("%s/%s.json?access_token=%s&limit=1",
		mapboxGeocodingBaseURL, url.PathEscape(address), url.QueryEscape(s.accessToken))

	var result mapboxGeocodeResponse
	if err := s.getJSON(ctx, geocodeURL, &result); err != nil {
		return 0, 0, err
	}
	if len(result.Features) == 0 || len(result.Features[0].Center) < 2 {
		return 0, 0, fmt.Errorf("address not found")
	}
	return result.Features[0].Center[0], result.Features[0].Center[1], nil
}

func (s *distanceServiceImpl) getJSON(ctx context.Context, requestURL string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mapbox returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

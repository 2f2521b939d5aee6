// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocodeearth

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/parking-memo/internal/geocode"
	"github.com/wneessen/parking-memo/internal/http"
)

const (
	APIEndpoint = "https://api.geocode.earth/v1/reverse"
	APITimeout  = time.Second * 10
	name        = "geocode-earth"
)

type GeocodeEarth struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Features []Feature `json:"features"`
	Type     string    `json:"type"`
}

type Feature struct {
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
	Type       string     `json:"type"`
}

// Geometry holds a GeoJSON point, coordinates are ordered longitude, latitude.
type Geometry struct {
	Coordinates []float64 `json:"coordinates"`
}

type Properties struct {
	Name          string `json:"name"`
	DisplayName   string `json:"label"`
	Locality      string `json:"locality"`
	LocalAdmin    string `json:"localadmin"`
	Borough       string `json:"borough"`
	Neighbourhood string `json:"neighbourhood"`
	Country       string `json:"country"`
	HouseNumber   string `json:"housenumber"`
	Postcode      string `json:"postalcode"`
	Street        string `json:"street"`
	Region        string `json:"region"`
}

func New(client *http.Client, lang language.Tag, apikey string) *GeocodeEarth {
	return &GeocodeEarth{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}
}

func (g *GeocodeEarth) Name() string {
	return name
}

func (g *GeocodeEarth) Reverse(ctx context.Context, lat, lon float64) (geocode.Address, error) {
	var response Response

	query := url.Values{}
	query.Set("api_key", g.apikey)
	query.Set("point.lat", fmt.Sprintf("%f", lat))
	query.Set("point.lon", fmt.Sprintf("%f", lon))
	query.Set("size", "1")
	query.Set("lang", g.lang.String())

	code, err := g.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout)
	if err != nil {
		return geocode.Address{}, fmt.Errorf("failed to retrieve address details from geocode.earth API: %w", err)
	}
	if code != 200 {
		return geocode.Address{}, fmt.Errorf("received non-positive response code from geocode.earth API: %d", code)
	}
	if len(response.Features) < 1 {
		return geocode.Address{Latitude: lat, Longitude: lon}, nil
	}

	feature := response.Features[0]
	result := feature.Properties
	address := geocode.Address{
		AddressFound: true,
		Latitude:     lat,
		Longitude:    lon,
		Name:         geocode.NameFromStreet(result.Name, result.Street, result.HouseNumber),
		SubLocality:  geocode.FirstNonEmpty(result.Borough, result.Neighbourhood),
		Locality:     geocode.FirstNonEmpty(result.Locality, result.LocalAdmin),
		DisplayName:  result.DisplayName,
		Country:      result.Country,
		State:        result.Region,
		Postcode:     result.Postcode,
		Street:       result.Street,
		HouseNumber:  result.HouseNumber,
	}
	if len(feature.Geometry.Coordinates) == 2 {
		address.Longitude = feature.Geometry.Coordinates[0]
		address.Latitude = feature.Geometry.Coordinates[1]
	}

	return address, nil
}

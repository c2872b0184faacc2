// Package seed provides the reference station dataset.
package seed

import (
	"fmt"
	"os"
	"time"

	"github.com/mr1hm/go-flood-watch/internal/csvio"
	"github.com/mr1hm/go-flood-watch/internal/models"
)

type station struct {
	name       string
	lat, lon   float64
	waterLevel float64
}

var stations = []station{
	{"Station A - Ciliwung River, Jakarta", -6.2088, 106.8456, 2.1},
	{"Station B - Citarum River, Bandung", -6.9175, 107.6191, 2.3},
	{"Station C - Brantas River, Surabaya", -7.2575, 112.7521, 2.5},
	{"Station D - Musi River, Palembang", -2.9760, 104.7754, 2.8},
	{"Station E - Deli River, Medan", 3.5952, 98.6722, 1.9},
	{"Station F - Garang River, Semarang", -6.9932, 110.4203, 2.2},
	{"Station G - Jeneberang River, Makassar", -5.1477, 119.4327, 2.4},
	{"Station H - Mahakam River, Samarinda", -0.4949, 117.1436, 3.1},
	{"Station I - Kapuas River, Pontianak", -0.0263, 109.3425, 3.5},
	{"Station J - Cisadane River, Tangerang", -6.1781, 106.6319, 2.0},
	{"Station K - Serayu River, Banjarnegara", -7.3706, 109.6844, 2.6},
	{"Station L - Bengawan Solo River, Solo", -7.5756, 110.8243, 2.9},
	{"Station M - Kampar River, Pekanbaru", 0.5071, 101.4478, 2.7},
	{"Station N - Progo River, Yogyakarta", -7.7956, 110.3695, 2.3},
	{"Station O - Widas River, Madiun", -7.6298, 111.5239, 2.1},
	{"Station P - Batanghari River, Jambi", -1.6101, 103.6131, 3.0},
	{"Station Q - Pesanggrahan River, Jakarta Selatan", -6.2615, 106.7829, 1.8},
	{"Station R - Barito River, Banjarmasin", -3.3194, 114.5906, 3.3},
	{"Station S - Asahan River, Tanjung Balai", 2.9667, 99.8000, 2.4},
	{"Station T - Banjaran River, Banyumas", -7.5200, 109.2900, 2.2},
	{"Station U - Siak River, Riau", 0.8894, 101.6806, 2.8},
	{"Station V - Kali Mas River, Surabaya Utara", -7.2104, 112.7688, 2.3},
	{"Station W - Cimanuk River, Indramayu", -6.4867, 108.3200, 2.1},
	{"Station X - Rokan River, Rokan Hulu", 1.1333, 100.4667, 2.6},
	{"Station Y - Pemali River, Brebes", -6.8750, 109.0403, 2.0},
}

var weatherCycle = []string{"Sunny", "Partly Cloudy", "Cloudy", "Light Rain"}

// Stations returns the 25 reference stations, all Normal, stamped at 07:00
// on now's date in loc.
func Stations(now time.Time, loc *time.Location) []models.Observation {
	local := now.In(loc)
	stamp := time.Date(local.Year(), local.Month(), local.Day(), 7, 0, 0, 0, loc)

	out := make([]models.Observation, len(stations))
	for i, s := range stations {
		out[i] = models.Observation{
			Name:         s.name,
			Latitude:     s.lat,
			Longitude:    s.lon,
			WarningLevel: models.WarningLevelNormal,
			WaterLevel:   s.waterLevel,
			Weather:      weatherCycle[i%len(weatherCycle)],
			LastUpdated:  stamp,
		}
	}
	return out
}

// FromCSV loads a dataset written in the csvio format.
func FromCSV(path string) ([]models.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening seed file: %w", err)
	}
	defer f.Close()

	obs, err := csvio.Read(f)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", path, err)
	}
	return obs, nil
}

package controller

import (
	"github.com/jengzang/shelter-map/internal/models"
	"github.com/jengzang/shelter-map/internal/spatial"
)

// nearestPerCategory finds, for every other category, the shelter closest to rec
func nearestPerCategory(ds *models.Dataset, rec models.ShelterRecord) []Neighbour {
	var out []Neighbour
	for _, cat := range ds.Categories {
		if cat == rec.Category || cat == models.DefaultCategory {
			continue
		}
		best := -1.0
		var bestRec models.ShelterRecord
		for _, other := range ds.Records[cat] {
			d := spatial.HaversineDistance(rec.Latitude, rec.Longitude, other.Latitude, other.Longitude)
			if best < 0 || d < best {
				best = d
				bestRec = other
			}
		}
		if best >= 0 {
			out = append(out, Neighbour{Shelter: bestRec, DistanceMeters: best})
		}
	}
	return out
}

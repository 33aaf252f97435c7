package donation

import "fridgefriend/internal/models"

var locations = []models.Location{
	{Name: "Roti Bank", Category: "Food Banks", Lat: 19.0760, Lng: 72.8777, Capacity: 800},
	{Name: "Annapurna Rasoi", Category: "Food Banks", Lat: 19.2183, Lng: 72.8479, Capacity: 500},
	{Name: "Sewa Sadan", Category: "Food Banks", Lat: 18.9972, Lng: 72.8344, Capacity: 400},
	{Name: "Taj Hotel Kitchen", Category: "Restaurants & Hotels", Lat: 18.9217, Lng: 72.8330, Surplus: 50},
	{Name: "Hyatt Regency", Category: "Restaurants & Hotels", Lat: 19.1173, Lng: 72.8647, Surplus: 75},
	{Name: "ITC Maratha", Category: "Restaurants & Hotels", Lat: 19.1096, Lng: 72.8494, Surplus: 100},
	{Name: "Goonj Center", Category: "NGOs & Shelters", Lat: 19.0760, Lng: 72.8777, Needs: 175},
	{Name: "Helping Hands", Category: "NGOs & Shelters", Lat: 19.0272, Lng: 72.8579, Needs: 120},
	{Name: "Akshaya Patra", Category: "NGOs & Shelters", Lat: 19.1302, Lng: 72.8746, Needs: 200},
	{Name: "Mumbai Dabbawalas", Category: "Community Kitchens", Lat: 19.0821, Lng: 72.8805, Capacity: 250},
	{Name: "Thane Roti Bank", Category: "Community Kitchens", Lat: 19.2011, Lng: 72.9648, Capacity: 300},
	{Name: "Kalyan Seva Sadan", Category: "Community Kitchens", Lat: 19.2456, Lng: 73.1238, Capacity: 180},
}

// Locations returns a copy of the partner drop-off points.
func Locations() []models.Location {
	out := make([]models.Location, len(locations))
	copy(out, locations)
	return out
}

// FindLocation looks a partner up by exact name.
func FindLocation(name string) (models.Location, bool) {
	for _, l := range locations {
		if l.Name == name {
			return l, true
		}
	}
	return models.Location{}, false
}

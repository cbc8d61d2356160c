// Package geo maps free-text wine region names to approximate coordinates
// for the stats map. It is a lookup table over representative centroids,
// not a geocoder.
package geo

import "strings"

// Point is an approximate latitude/longitude pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type entry struct {
	name  string
	point Point
}

// regionTable lists known countries and regions. Substring resolution walks
// this slice in order and takes the first hit, so the declaration order is
// the tie-break for ambiguous inputs.
var regionTable = []entry{
	// Countries
	{"frankreich", Point{46.6, 2.2}}, {"france", Point{46.6, 2.2}},
	{"italien", Point{42.5, 12.5}}, {"italy", Point{42.5, 12.5}}, {"italia", Point{42.5, 12.5}},
	{"spanien", Point{40.0, -3.7}}, {"spain", Point{40.0, -3.7}}, {"españa", Point{40.0, -3.7}},
	{"schweiz", Point{46.8, 8.2}}, {"switzerland", Point{46.8, 8.2}}, {"suisse", Point{46.8, 8.2}},
	{"deutschland", Point{50.1, 8.7}}, {"germany", Point{50.1, 8.7}},
	{"österreich", Point{47.5, 14.5}}, {"austria", Point{47.5, 14.5}},
	{"portugal", Point{39.4, -8.2}},
	{"usa", Point{38.5, -121.5}}, {"vereinigte staaten", Point{38.5, -121.5}},
	{"argentinien", Point{-33.4, -68.4}}, {"argentina", Point{-33.4, -68.4}},
	{"chile", Point{-35.0, -71.2}},
	{"australien", Point{-35.0, 138.5}}, {"australia", Point{-35.0, 138.5}},
	{"neuseeland", Point{-41.3, 174.8}}, {"new zealand", Point{-41.3, 174.8}},
	{"südafrika", Point{-33.9, 18.9}}, {"south africa", Point{-33.9, 18.9}},
	{"griechenland", Point{38.5, 23.5}}, {"greece", Point{38.5, 23.5}},
	{"ungarn", Point{47.0, 19.5}}, {"hungary", Point{47.0, 19.5}},
	{"georgien", Point{42.0, 43.5}}, {"georgia", Point{42.0, 43.5}},
	{"libanon", Point{33.9, 35.5}}, {"lebanon", Point{33.9, 35.5}},
	{"kroatien", Point{45.1, 15.2}}, {"croatia", Point{45.1, 15.2}},
	{"slowenien", Point{46.1, 14.5}}, {"slovenia", Point{46.1, 14.5}},
	// French regions
	{"bordeaux", Point{44.8, -0.6}}, {"burgund", Point{47.0, 4.8}}, {"bourgogne", Point{47.0, 4.8}},
	{"champagne", Point{49.0, 3.9}}, {"elsass", Point{48.3, 7.4}}, {"alsace", Point{48.3, 7.4}},
	{"loire", Point{47.4, 0.7}}, {"rhône", Point{44.9, 4.8}}, {"rhone", Point{44.9, 4.8}},
	{"provence", Point{43.5, 5.9}}, {"languedoc", Point{43.3, 3.0}}, {"jura", Point{46.7, 5.9}},
	{"beaujolais", Point{46.1, 4.6}}, {"côtes du rhône", Point{44.3, 4.8}},
	// Italian regions
	{"toskana", Point{43.4, 11.2}}, {"tuscany", Point{43.4, 11.2}}, {"toscana", Point{43.4, 11.2}},
	{"piemont", Point{44.7, 8.0}}, {"piemonte", Point{44.7, 8.0}}, {"piedmont", Point{44.7, 8.0}},
	{"venetien", Point{45.4, 12.3}}, {"veneto", Point{45.4, 12.3}},
	{"sizilien", Point{37.5, 14.0}}, {"sicilia", Point{37.5, 14.0}}, {"sicily", Point{37.5, 14.0}},
	{"sardinien", Point{40.1, 9.1}}, {"sardegna", Point{40.1, 9.1}},
	{"apulien", Point{41.1, 16.9}}, {"puglia", Point{41.1, 16.9}},
	{"abruzzen", Point{42.2, 13.8}}, {"abruzzo", Point{42.2, 13.8}},
	{"südtirol", Point{46.5, 11.3}}, {"alto adige", Point{46.5, 11.3}},
	{"lombardei", Point{45.5, 9.9}}, {"lombardia", Point{45.5, 9.9}},
	{"kampanien", Point{40.8, 14.3}}, {"campania", Point{40.8, 14.3}},
	{"friaul", Point{46.1, 13.2}}, {"friuli", Point{46.1, 13.2}},
	// Spanish regions
	{"rioja", Point{42.5, -2.5}}, {"ribera del duero", Point{41.6, -3.7}},
	{"priorat", Point{41.2, 0.8}}, {"penedès", Point{41.4, 1.7}},
	{"katalonien", Point{41.6, 1.5}}, {"cataluña", Point{41.6, 1.5}},
	{"galizien", Point{42.5, -8.0}}, {"galicia", Point{42.5, -8.0}},
	{"navarra", Point{42.7, -1.6}},
	// German regions
	{"mosel", Point{49.9, 6.9}}, {"rheingau", Point{50.0, 8.0}},
	{"pfalz", Point{49.3, 8.1}}, {"baden", Point{48.0, 7.8}},
	{"franken", Point{49.8, 10.0}}, {"rheinhessen", Point{49.8, 8.2}},
	{"ahr", Point{50.5, 7.1}}, {"nahe", Point{49.8, 7.6}},
	{"württemberg", Point{48.8, 9.2}},
	// Swiss regions
	{"wallis", Point{46.2, 7.6}}, {"valais", Point{46.2, 7.6}},
	{"waadt", Point{46.5, 6.6}}, {"vaud", Point{46.5, 6.6}},
	{"genf", Point{46.2, 6.1}}, {"genève", Point{46.2, 6.1}},
	{"tessin", Point{46.2, 8.9}}, {"ticino", Point{46.2, 8.9}},
	{"graubünden", Point{46.8, 9.8}}, {"schaffhausen", Point{47.7, 8.6}},
	{"zürich", Point{47.4, 8.5}}, {"aargau", Point{47.4, 8.1}},
	// Austrian regions
	{"wachau", Point{48.4, 15.4}}, {"burgenland", Point{47.5, 16.5}},
	{"steiermark", Point{46.9, 15.5}}, {"styria", Point{46.9, 15.5}},
	{"niederösterreich", Point{48.2, 15.7}}, {"wien", Point{48.2, 16.4}},
	// Portuguese regions
	{"douro", Point{41.2, -7.8}}, {"alentejo", Point{38.5, -7.9}},
	{"dão", Point{40.5, -7.9}}, {"minho", Point{41.8, -8.3}},
	// US regions
	{"napa valley", Point{38.5, -122.3}}, {"napa", Point{38.5, -122.3}},
	{"sonoma", Point{38.3, -122.7}}, {"kalifornien", Point{36.8, -119.4}}, {"california", Point{36.8, -119.4}},
	{"oregon", Point{45.2, -122.8}}, {"washington", Point{46.8, -120.5}},
	// South American regions
	{"mendoza", Point{-33.0, -68.8}}, {"maipo", Point{-33.7, -70.6}},
	{"colchagua", Point{-34.7, -71.2}}, {"casablanca", Point{-33.3, -71.4}},
	// Australian regions
	{"barossa", Point{-34.5, 138.9}}, {"barossa valley", Point{-34.5, 138.9}},
	{"mclaren vale", Point{-35.2, 138.5}}, {"hunter valley", Point{-32.8, 151.2}},
	{"margaret river", Point{-33.9, 115.0}},
	// Others
	{"tokaj", Point{48.1, 21.4}}, {"stellenbosch", Point{-33.9, 18.8}},
	{"marlborough", Point{-41.5, 174.0}}, {"hawke's bay", Point{-39.5, 176.8}},
}

// Resolve looks up coordinates for a region name, case-insensitively.
// Exact matches win; otherwise the first table entry that contains the key
// or is contained by it is used. Blank input resolves to nothing.
func Resolve(region string) (Point, bool) {
	key := strings.ToLower(strings.TrimSpace(region))
	if key == "" {
		return Point{}, false
	}
	for _, e := range regionTable {
		if e.name == key {
			return e.point, true
		}
	}
	for _, e := range regionTable {
		if strings.Contains(key, e.name) || strings.Contains(e.name, key) {
			return e.point, true
		}
	}
	return Point{}, false
}

package domain

import "sort"

// CountyCount is the number of counties in the roster.
const CountyCount = 100

// County is one roster entry.
type County struct {
	FIPS string
	Name string
}

// ncCounties maps the 5-digit FIPS code to the county name for all 100
// North Carolina counties (state FIPS 37, Census county codes).
var ncCounties = map[string]string{
	"37001": "Alamance", "37003": "Alexander", "37005": "Alleghany", "37007": "Anson",
	"37009": "Ashe", "37011": "Avery", "37013": "Beaufort", "37015": "Bertie",
	"37017": "Bladen", "37019": "Brunswick", "37021": "Buncombe", "37023": "Burke",
	"37025": "Cabarrus", "37027": "Caldwell", "37029": "Camden", "37031": "Carteret",
	"37033": "Caswell", "37035": "Catawba", "37037": "Chatham", "37039": "Cherokee",
	"37041": "Chowan", "37043": "Clay", "37045": "Cleveland", "37047": "Columbus",
	"37049": "Craven", "37051": "Cumberland", "37053": "Currituck", "37055": "Dare",
	"37057": "Davidson", "37059": "Davie", "37061": "Duplin", "37063": "Durham",
	"37065": "Edgecombe", "37067": "Forsyth", "37069": "Franklin", "37071": "Gaston",
	"37073": "Gates", "37075": "Graham", "37077": "Granville", "37079": "Greene",
	"37081": "Guilford", "37083": "Halifax", "37085": "Harnett", "37087": "Haywood",
	"37089": "Henderson", "37091": "Hertford", "37093": "Hoke", "37095": "Hyde",
	"37097": "Iredell", "37099": "Jackson", "37101": "Johnston", "37103": "Jones",
	"37105": "Lee", "37107": "Lenoir", "37109": "Lincoln", "37111": "McDowell",
	"37113": "Macon", "37115": "Madison", "37117": "Martin", "37119": "Mecklenburg",
	"37121": "Mitchell", "37123": "Montgomery", "37125": "Moore", "37127": "Nash",
	"37129": "New Hanover", "37131": "Northampton", "37133": "Onslow", "37135": "Orange",
	"37137": "Pamlico", "37139": "Pasquotank", "37141": "Pender", "37143": "Perquimans",
	"37145": "Person", "37147": "Pitt", "37149": "Polk", "37151": "Randolph",
	"37153": "Richmond", "37155": "Robeson", "37157": "Rockingham", "37159": "Rowan",
	"37161": "Rutherford", "37163": "Sampson", "37165": "Scotland", "37167": "Stanly",
	"37169": "Stokes", "37171": "Surry", "37173": "Swain", "37175": "Transylvania",
	"37177": "Tyrrell", "37179": "Union", "37181": "Vance", "37183": "Wake",
	"37185": "Warren", "37187": "Washington", "37189": "Watauga", "37191": "Wayne",
	"37193": "Wilkes", "37195": "Wilson", "37197": "Yadkin", "37199": "Yancey",
}

// Roster returns the full county roster in ascending FIPS order.
func Roster() []County {
	roster := make([]County, 0, len(ncCounties))
	for fips, name := range ncCounties {
		roster = append(roster, County{FIPS: fips, Name: name})
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].FIPS < roster[j].FIPS })
	return roster
}

// KnownCounty reports whether fips is in the roster.
func KnownCounty(fips string) bool {
	_, ok := ncCounties[fips]
	return ok
}

// CountyName returns the roster name for a FIPS code, or "" if unknown.
func CountyName(fips string) string {
	return ncCounties[fips]
}

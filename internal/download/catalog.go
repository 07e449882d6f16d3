package download

// Group identifies the upstream publisher of a source.
type Group string

const (
	GroupFDIC       Group = "fdic"
	GroupNIC        Group = "nic"
	GroupChicagoFed Group = "chicago_fed"
	GroupCDR        Group = "cdr"
)

// Source is one downloadable dataset. ManualOnly sources sit behind an
// interactive session upstream and cannot be fetched directly; they are
// listed so a run reports what is missing rather than silently ignoring
// it.
type Source struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Format      string `json:"format"`
	Group       Group  `json:"group"`
	Filename    string `json:"filename"`
	ManualOnly  bool   `json:"manual_only"`
}

// Catalog lists every upstream source the import stages consume.
var Catalog = []Source{
	{
		Key:         "fdic_failed_banks",
		Name:        "FDIC Failed Bank List",
		Description: "All FDIC-insured banks that have failed since October 1, 2000",
		URL:         "https://www.fdic.gov/bank-failures/download-data.csv",
		Format:      "csv",
		Group:       GroupFDIC,
		Filename:    "fdic_failed_banks.csv",
	},
	{
		Key:         "fdic_failed_banks_legacy",
		Name:        "FDIC Failed Bank List (legacy URL)",
		Description: "Alternative URL for the failed bank list",
		URL:         "https://www.fdic.gov/resources/resolutions/bank-failures/failed-bank-list/banklist.csv",
		Format:      "csv",
		Group:       GroupFDIC,
		Filename:    "fdic_failed_banks_legacy.csv",
	},
	{
		Key:         "nic_attributes_active",
		Name:        "NIC Attributes Table (active)",
		Description: "Institution attributes for active entities",
		URL:         "https://www.ffiec.gov/npw/StaticData/DataDownload/CSV/CSV_ATTRIBUTES_ACTIVE.zip",
		Format:      "zip",
		Group:       GroupNIC,
		Filename:    "NIC_Attributes_Active.zip",
	},
	{
		Key:         "nic_attributes_closed",
		Name:        "NIC Attributes Table (closed)",
		Description: "Attributes for closed and failed institutions",
		URL:         "https://www.ffiec.gov/npw/StaticData/DataDownload/CSV/CSV_ATTRIBUTES_CLOSED.zip",
		Format:      "zip",
		Group:       GroupNIC,
		Filename:    "NIC_Attributes_Closed.zip",
	},
	{
		Key:         "nic_attributes_branches",
		Name:        "NIC Attributes Table (branches)",
		Description: "Branch office attributes",
		URL:         "https://www.ffiec.gov/npw/StaticData/DataDownload/CSV/CSV_ATTRIBUTES_BRANCHES.zip",
		Format:      "zip",
		Group:       GroupNIC,
		Filename:    "NIC_Attributes_Branches.zip",
	},
	{
		Key:         "nic_relationships",
		Name:        "NIC Relationships Table",
		Description: "Ownership relationships between institutions",
		URL:         "https://www.ffiec.gov/npw/StaticData/DataDownload/CSV/CSV_RELATIONSHIPS.zip",
		Format:      "zip",
		Group:       GroupNIC,
		Filename:    "NIC_Relationships.zip",
	},
	{
		Key:         "nic_transformations",
		Name:        "NIC Transformations Table",
		Description: "Mergers, acquisitions, and other transformation events",
		URL:         "https://www.ffiec.gov/npw/StaticData/DataDownload/CSV/CSV_TRANSFORMATIONS.zip",
		Format:      "zip",
		Group:       GroupNIC,
		Filename:    "NIC_Transformations.zip",
	},
	{
		Key:         "chicago_fed_commercial",
		Name:        "Chicago Fed Commercial Bank Data",
		Description: "Historical call-report data 1976-2000, browsable archive",
		URL:         "https://www.chicagofed.org/banking/financial-institution-reports/commercial-bank-data",
		Format:      "html",
		Group:       GroupChicagoFed,
		Filename:    "",
		ManualOnly:  true,
	},
	{
		Key:         "ffiec_cdr_bulk",
		Name:        "FFIEC CDR Bulk Call Reports",
		Description: "Modern call-report bulk download, requires an interactive session",
		URL:         "https://cdr.ffiec.gov/public/pws/downloadbulkdata.aspx",
		Format:      "html",
		Group:       GroupCDR,
		Filename:    "",
		ManualOnly:  true,
	},
}

// Lookup returns the catalog entry for a key.
func Lookup(key string) (Source, bool) {
	for _, s := range Catalog {
		if s.Key == key {
			return s, true
		}
	}
	return Source{}, false
}

// ByGroup returns the catalog entries belonging to one publisher.
func ByGroup(g Group) []Source {
	var out []Source
	for _, s := range Catalog {
		if s.Group == g {
			out = append(out, s)
		}
	}
	return out
}

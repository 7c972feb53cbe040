package draft

// Check identifies one step of draft validation. Checks run in numeric order.
type Check int

// Validation checks in the order they are evaluated.
const (
	CheckNone Check = iota
	CheckTransactionDate
	CheckProduct
	CheckLoadingClient
	CheckLoadingVehicle
	CheckLoadingDriver
	CheckLoadingDate
	CheckLoadingQuantity
	CheckLoadingRate
	CheckUnloadingClient
	CheckUnloadingVehicle
	CheckUnloadingDriver
	CheckUnloadingDate
	CheckUnloadingQuantity
	CheckUnloadingRate
	CheckDateOrder
)

// ValidationResult is the outcome of Validate: the first failing check, or
// CheckNone when the draft may be submitted.
type ValidationResult struct {
	Section Section
	Message string
	Check   Check
}

// OK reports whether every check passed.
func (r ValidationResult) OK() bool {
	return r.Check == CheckNone
}

func (r ValidationResult) String() string {
	if r.OK() {
		return "ok"
	}
	return string(r.Section) + ": " + r.Message
}

type rule struct {
	fails   func(*Draft) bool
	message string
	section Section
	check   Check
}

var rules = []rule{
	{check: CheckTransactionDate, section: SectionDetails, message: "Please select a transaction date",
		fails: func(d *Draft) bool { return d.TransactionDate == nil }},
	{check: CheckProduct, section: SectionDetails, message: "Please select a product",
		fails: func(d *Draft) bool { return d.Product == nil }},
	{check: CheckLoadingClient, section: SectionLoading, message: "Please select a loading client",
		fails: func(d *Draft) bool { return d.Loading.Client == nil }},
	{check: CheckLoadingVehicle, section: SectionLoading, message: "Please select a loading vehicle",
		fails: func(d *Draft) bool { return d.Loading.Vehicle == nil }},
	{check: CheckLoadingDriver, section: SectionLoading, message: "Please select a loading driver",
		fails: func(d *Draft) bool { return d.Loading.Driver == nil }},
	{check: CheckLoadingDate, section: SectionLoading, message: "Please select a loading date",
		fails: func(d *Draft) bool { return d.Loading.Date == nil }},
	{check: CheckLoadingQuantity, section: SectionLoading, message: "Please enter a valid loading quantity",
		fails: func(d *Draft) bool { return !d.Loading.Quantity.IsPositive() }},
	{check: CheckLoadingRate, section: SectionLoading, message: "Please enter a valid loading rate",
		fails: func(d *Draft) bool { return d.Loading.Rate.IsNegative() }},
	{check: CheckUnloadingClient, section: SectionUnloading, message: "Please select an unloading client",
		fails: func(d *Draft) bool { return d.Unloading.Client == nil }},
	{check: CheckUnloadingVehicle, section: SectionUnloading, message: "Please select an unloading vehicle",
		fails: func(d *Draft) bool { return d.Unloading.Vehicle == nil }},
	{check: CheckUnloadingDriver, section: SectionUnloading, message: "Please select an unloading driver",
		fails: func(d *Draft) bool { return d.Unloading.Driver == nil }},
	{check: CheckUnloadingDate, section: SectionUnloading, message: "Please select an unloading date",
		fails: func(d *Draft) bool { return d.Unloading.Date == nil }},
	{check: CheckUnloadingQuantity, section: SectionUnloading, message: "Please enter a valid unloading quantity",
		fails: func(d *Draft) bool { return !d.Unloading.Quantity.IsPositive() }},
	// Stricter than the loading side: a zero selling rate is rejected.
	{check: CheckUnloadingRate, section: SectionUnloading, message: "Please enter a valid unloading rate",
		fails: func(d *Draft) bool { return !d.Unloading.Rate.IsPositive() }},
	{check: CheckDateOrder, section: SectionUnloading, message: "Unloading date cannot be before loading date",
		fails: func(d *Draft) bool {
			return d.Loading.Date != nil && d.Unloading.Date != nil && calendarDay(*d.Unloading.Date).Before(calendarDay(*d.Loading.Date))
		}},
}

// Validate runs the ordered checks and returns the first failure.
func (d *Draft) Validate() ValidationResult {
	for _, r := range rules {
		if r.fails(d) {
			return ValidationResult{Check: r.check, Section: r.section, Message: r.message}
		}
	}
	return ValidationResult{Check: CheckNone}
}

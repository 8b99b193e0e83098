package errors

var (
	ErrInvalidStation = New(
		"INVALID_STATION",
		"Invalid station data",
	)

	ErrStationExists = New(
		"STATION_EXISTS",
		"Station with this code already exists",
	)

	ErrStationNotFound = New(
		"STATION_NOT_FOUND",
		"Station not found",
	)

	ErrInvalidLine = New(
		"INVALID_LINE",
		"Invalid line data",
	)

	ErrLineExists = New(
		"LINE_EXISTS",
		"Line with this id already exists",
	)

	ErrLineNotFound = New(
		"LINE_NOT_FOUND",
		"Line not found",
	)

	ErrInvalidFare = New(
		"INVALID_FARE",
		"Invalid fare: price must be positive and station codes non-empty",
	)

	ErrFareExists = New(
		"FARE_EXISTS",
		"Fare for this segment already exists",
	)

	ErrFareNotFound = New(
		"FARE_NOT_FOUND",
		"Fare not found",
	)

	ErrInvalidDiscount = New(
		"INVALID_DISCOUNT",
		"Discount factor must be between 0 and 1",
	)

	ErrInsufficientFunds = New(
		"INSUFFICIENT_FUNDS",
		"Not enough funds to pay the fare",
	)

	ErrNoRoute = New(
		"NO_ROUTE",
		"No priced route between the requested stations",
	)

	ErrGateExists = New(
		"GATE_EXISTS",
		"Gate with this id already exists",
	)

	ErrGateNotFound = New(
		"GATE_NOT_FOUND",
		"Gate not found",
	)

	ErrTicketState = New(
		"TICKET_STATE",
		"Ticket status does not allow this transition",
	)

	ErrSnapshotError = New(
		"SNAPSHOT_ERROR",
		"Snapshot storage operation failed",
	)
)

// internal/model/response.go
package model

import "strings"

// ResponseCode is the result code shared by every backend.
type ResponseCode int

const (
	CodeSuccess            ResponseCode = 0
	CodeMissedParameters   ResponseCode = 1
	CodeWrongParameters    ResponseCode = 2
	CodeHandlingError      ResponseCode = 4
	CodeAuthorizationError ResponseCode = 8
	CodeNoConnection       ResponseCode = 16
	CodeLogicalError       ResponseCode = 32
	CodeInternalError      ResponseCode = 64
)

func (c ResponseCode) String() string {
	switch c {
	case CodeSuccess:
		return "SUCCESS"
	case CodeMissedParameters:
		return "MISSED_PARAMETERS"
	case CodeWrongParameters:
		return "WRONG_PARAMETERS"
	case CodeHandlingError:
		return "HANDLING_ERROR"
	case CodeAuthorizationError:
		return "AUTHORIZATION_ERROR"
	case CodeNoConnection:
		return "NO_CONNECTION"
	case CodeLogicalError:
		return "LOGICAL_ERROR"
	case CodeInternalError:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN"
	}
}

// BaseResponse is embedded by every response of the family.
type BaseResponse struct {
	ResultCode ResponseCode `json:"resultCode"`
	ResultInfo string       `json:"resultInfo"`
}

// NewBaseResponse returns a response in its default HANDLING_ERROR state.
func NewBaseResponse() BaseResponse {
	return BaseResponse{ResultCode: CodeHandlingError}
}

func (r BaseResponse) IsSuccess() bool {
	return r.ResultCode == CodeSuccess
}

// Set overwrites code and info.
func (r *BaseResponse) Set(code ResponseCode, info string) {
	r.ResultCode = code
	r.ResultInfo = info
}

type EquipmentResponse struct {
	BaseResponse
}

// NewResponse builds an EquipmentResponse with the given result.
func NewResponse(code ResponseCode, info string) EquipmentResponse {
	return EquipmentResponse{BaseResponse{ResultCode: code, ResultInfo: info}}
}

type SerialResponse struct {
	BaseResponse
	Serial string `json:"serial"`
}

func NewSerialResponse() SerialResponse {
	return SerialResponse{BaseResponse: NewBaseResponse()}
}

// FrSessionState describes the fiscal shift as reported by the device.
type FrSessionState struct {
	ShiftOpen   Bool `json:"shiftOpen"`
	ShiftNumber int  `json:"shiftNumber"`
	PaperExists Bool `json:"paperExists"`
}

type SessionStateResponse struct {
	BaseResponse
	FrSessionState FrSessionState `json:"frSessionState"`
}

func NewSessionStateResponse() SessionStateResponse {
	return SessionStateResponse{BaseResponse: NewBaseResponse()}
}

// Device diagnostics that identify well-known shift conditions.
const (
	shiftAlreadyOpenedCode = "-3837"
	shiftExpiredCode       = "-3822"
)

type OpenShiftResponse struct {
	BaseResponse
}

func NewOpenShiftResponse() OpenShiftResponse {
	return OpenShiftResponse{BaseResponse: NewBaseResponse()}
}

func (r OpenShiftResponse) ShiftAlreadyOpened() bool {
	return strings.Contains(r.ResultInfo, shiftAlreadyOpenedCode)
}

func (r OpenShiftResponse) ShiftExpired24Hours() bool {
	return strings.Contains(r.ResultInfo, shiftExpiredCode)
}

// OfdStatus is the state of the fiscal data operator submission queue.
type OfdStatus struct {
	IsError        Bool   `json:"isError"`
	UnsetDocsCount int    `json:"unsetDocsCount"`
	ErrorCode      int    `json:"errorCode"`
	ErrorDate      int64  `json:"errorDate"`
	ErrorText      string `json:"errorText"`
}

type OfdStatusResponse struct {
	BaseResponse
	OfdStatus OfdStatus `json:"ofdStatus"`
}

func NewOfdStatusResponse() OfdStatusResponse {
	return OfdStatusResponse{BaseResponse: NewBaseResponse()}
}

// Tax is one configured tax-rate slot.
type Tax struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type TaxesResponse struct {
	BaseResponse
	Taxes []Tax `json:"taxes"`
}

func NewTaxesResponse() TaxesResponse {
	return TaxesResponse{BaseResponse: NewBaseResponse(), Taxes: []Tax{}}
}

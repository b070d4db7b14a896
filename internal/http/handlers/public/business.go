package public

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sharperly/logistics-api/internal/constants"
	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/models"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

// addressField 兼容对象与 JSON 字符串两种地址写法
type addressField struct {
	value *models.Address
}

// UnmarshalJSON 支持 {"street":...} 与 "{\"street\":...}"
func (a *addressField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		return a.UnmarshalParam(raw)
	}
	var addr models.Address
	if err := json.Unmarshal(trimmed, &addr); err != nil {
		return err
	}
	a.value = &addr
	return nil
}

// UnmarshalParam 表单字段中的地址为 JSON 字符串
func (a *addressField) UnmarshalParam(param string) error {
	param = strings.TrimSpace(param)
	if param == "" {
		return nil
	}
	var addr models.Address
	if err := json.Unmarshal([]byte(param), &addr); err != nil {
		return err
	}
	a.value = &addr
	return nil
}

// KYCRequest 提交 KYC 请求，地址可平铺或通过 businessAddress 整体提交
type KYCRequest struct {
	BusinessName              string       `json:"businessName" form:"businessName" binding:"required,min=2,max=200" msg:"Business name must be between 2 and 200 characters"`
	BusinessEmail             string       `json:"businessEmail" form:"businessEmail" binding:"required,email" msg:"Please enter a valid business email address"`
	StreetAddress             string       `json:"streetAddress" form:"streetAddress" binding:"required" msg:"Street address is required"`
	City                      string       `json:"city" form:"city" binding:"required" msg:"City is required"`
	State                     string       `json:"state" form:"state" binding:"required" msg:"State is required"`
	Country                   string       `json:"country" form:"country"`
	ZipCode                   string       `json:"zipCode" form:"zipCode"`
	BusinessAddress           addressField `json:"businessAddress" form:"businessAddress" binding:"-"`
	CACRegistrationNumber     string       `json:"cacRegistrationNumber" form:"cacRegistrationNumber" binding:"required" msg:"CAC registration number is required"`
	BusinessHotline           string       `json:"businessHotline" form:"businessHotline" binding:"required,phone" msg:"Please enter a valid business hotline"`
	AlternativePhoneNumber    string       `json:"alternativePhoneNumber" form:"alternativePhoneNumber" binding:"omitempty,phone" msg:"Please enter a valid alternative phone number"`
	WantSharperlyDriverOrders *bool        `json:"wantSharperlyDriverOrders" form:"wantSharperlyDriverOrders" binding:"required" msg:"Please specify if you want Sharperly driver orders"`
	ProofOfAddress            string       `json:"proofOfAddress" form:"-"`
	BusinessLogo              string       `json:"businessLogo" form:"-"`
}

// applyBusinessAddress businessAddress 中的非空字段覆盖平铺字段
func (r *KYCRequest) applyBusinessAddress() {
	addr := r.BusinessAddress.value
	if addr == nil {
		return
	}
	overrideIfSet(&r.StreetAddress, addr.Street)
	overrideIfSet(&r.City, addr.City)
	overrideIfSet(&r.State, addr.State)
	overrideIfSet(&r.Country, addr.Country)
	overrideIfSet(&r.ZipCode, addr.ZipCode)
}

// UpdateKYCRequest 局部更新 KYC 请求
type UpdateKYCRequest struct {
	BusinessName              *string      `json:"businessName" form:"businessName" binding:"omitempty,min=2,max=200" msg:"Business name must be between 2 and 200 characters"`
	BusinessEmail             *string      `json:"businessEmail" form:"businessEmail" binding:"omitempty,email" msg:"Please enter a valid business email address"`
	StreetAddress             *string      `json:"streetAddress" form:"streetAddress" binding:"omitempty,min=1" msg:"Street address is required"`
	City                      *string      `json:"city" form:"city" binding:"omitempty,min=1" msg:"City is required"`
	State                     *string      `json:"state" form:"state" binding:"omitempty,min=1" msg:"State is required"`
	Country                   *string      `json:"country" form:"country"`
	ZipCode                   *string      `json:"zipCode" form:"zipCode"`
	BusinessAddress           addressField `json:"businessAddress" form:"businessAddress" binding:"-"`
	CACRegistrationNumber     *string      `json:"cacRegistrationNumber" form:"cacRegistrationNumber" binding:"omitempty,min=1" msg:"CAC registration number is required"`
	BusinessHotline           *string      `json:"businessHotline" form:"businessHotline" binding:"omitempty,phone" msg:"Please enter a valid business hotline"`
	AlternativePhoneNumber    *string      `json:"alternativePhoneNumber" form:"alternativePhoneNumber" binding:"omitempty,phone" msg:"Please enter a valid alternative phone number"`
	WantSharperlyDriverOrders *bool        `json:"wantSharperlyDriverOrders" form:"wantSharperlyDriverOrders"`
	ProofOfAddress            string       `json:"proofOfAddress" form:"-"`
	BusinessLogo              string       `json:"businessLogo" form:"-"`
}

func (r *UpdateKYCRequest) applyBusinessAddress() {
	addr := r.BusinessAddress.value
	if addr == nil {
		return
	}
	overrideOptional(&r.StreetAddress, addr.Street)
	overrideOptional(&r.City, addr.City)
	overrideOptional(&r.State, addr.State)
	overrideOptional(&r.Country, addr.Country)
	overrideOptional(&r.ZipCode, addr.ZipCode)
}

// VehicleCountsRequest 车队数量请求
type VehicleCountsRequest struct {
	NumberOfDrivers *int `json:"numberOfDrivers" binding:"required,min=0" msg:"Number of drivers must be a non-negative integer"`
	NumberOfCars    *int `json:"numberOfCars" binding:"required,min=0" msg:"Number of cars must be a non-negative integer"`
	NumberOfBikes   *int `json:"numberOfBikes" binding:"required,min=0" msg:"Number of bikes must be a non-negative integer"`
	NumberOfVans    *int `json:"numberOfVans" binding:"required,min=0" msg:"Number of vans must be a non-negative integer"`
}

func (r VehicleCountsRequest) toInput() service.VehicleCountsInput {
	return service.VehicleCountsInput{
		NumberOfDrivers: derefInt(r.NumberOfDrivers),
		NumberOfCars:    derefInt(r.NumberOfCars),
		NumberOfBikes:   derefInt(r.NumberOfBikes),
		NumberOfVans:    derefInt(r.NumberOfVans),
	}
}

// SubmitKYC 提交企业 KYC，支持 multipart 文件或 base64 data URI
func (h *Handler) SubmitKYC(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req KYCRequest
	if !handlershared.DecodeBody(c, &req) {
		return
	}
	req.applyBusinessAddress()
	if !handlershared.Validate(c, &req) {
		return
	}

	const serverErrMsg = "Server error during KYC submission"
	proofURL, err := h.storeKYCDocument(c, "proofOfAddress", req.ProofOfAddress, constants.UploadSceneProofOfAddress)
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, serverErrMsg)
		return
	}
	logoURL, err := h.storeKYCDocument(c, "businessLogo", req.BusinessLogo, constants.UploadSceneBusinessLogo)
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, serverErrMsg)
		return
	}

	business, err := h.BusinessService.SubmitKYC(userID, service.KYCInput{
		BusinessName:  req.BusinessName,
		BusinessEmail: req.BusinessEmail,
		Address: models.Address{
			Street:  strings.TrimSpace(req.StreetAddress),
			City:    strings.TrimSpace(req.City),
			State:   strings.TrimSpace(req.State),
			Country: strings.TrimSpace(req.Country),
			ZipCode: strings.TrimSpace(req.ZipCode),
		},
		CACRegistrationNumber:     req.CACRegistrationNumber,
		BusinessHotline:           req.BusinessHotline,
		AlternativePhoneNumber:    req.AlternativePhoneNumber,
		WantSharperlyDriverOrders: *req.WantSharperlyDriverOrders,
		ProofOfAddressURL:         proofURL,
		BusinessLogoURL:           logoURL,
	})
	if err != nil {
		respondWithMappedError(c, err, kycErrorRules, response.CodeInternal, serverErrMsg)
		return
	}
	response.Created(c, gin.H{
		"message":  "Business KYC submitted successfully",
		"business": business,
	})
}

// GetKYC 获取企业 KYC
func (h *Handler) GetKYC(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	business, err := h.BusinessService.GetKYC(userID)
	if err != nil {
		respondWithMappedError(c, err, kycErrorRules, response.CodeInternal, "Server error while fetching KYC data")
		return
	}
	response.Success(c, gin.H{"business": business})
}

// UpdateKYC 局部更新企业 KYC
func (h *Handler) UpdateKYC(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateKYCRequest
	if !handlershared.DecodeBody(c, &req) {
		return
	}
	req.applyBusinessAddress()
	if !handlershared.Validate(c, &req) {
		return
	}

	const serverErrMsg = "Server error while updating KYC data"
	proofURL, err := h.storeKYCDocument(c, "proofOfAddress", req.ProofOfAddress, constants.UploadSceneProofOfAddress)
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, serverErrMsg)
		return
	}
	logoURL, err := h.storeKYCDocument(c, "businessLogo", req.BusinessLogo, constants.UploadSceneBusinessLogo)
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, serverErrMsg)
		return
	}

	business, err := h.BusinessService.UpdateKYC(userID, service.KYCUpdateInput{
		BusinessName:              req.BusinessName,
		BusinessEmail:             req.BusinessEmail,
		Street:                    req.StreetAddress,
		City:                      req.City,
		State:                     req.State,
		Country:                   req.Country,
		ZipCode:                   req.ZipCode,
		CACRegistrationNumber:     req.CACRegistrationNumber,
		BusinessHotline:           req.BusinessHotline,
		AlternativePhoneNumber:    req.AlternativePhoneNumber,
		WantSharperlyDriverOrders: req.WantSharperlyDriverOrders,
		ProofOfAddressURL:         proofURL,
		BusinessLogoURL:           logoURL,
	})
	if err != nil {
		respondWithMappedError(c, err, kycErrorRules, response.CodeInternal, serverErrMsg)
		return
	}
	response.Success(c, gin.H{
		"message":  "Business KYC updated successfully",
		"business": business,
	})
}

// RegisterVehicles 登记车队
func (h *Handler) RegisterVehicles(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req VehicleCountsRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	vehicle, err := h.BusinessService.RegisterVehicles(userID, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, vehicleErrorRules, response.CodeInternal, "Server error during vehicle registration")
		return
	}
	response.Created(c, gin.H{
		"message":  "Vehicles registered successfully",
		"vehicles": vehicle,
	})
}

// GetVehicles 获取车队信息
func (h *Handler) GetVehicles(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	view, err := h.BusinessService.GetVehicles(userID)
	if err != nil {
		respondWithMappedError(c, err, vehicleErrorRules, response.CodeInternal, "Server error while fetching vehicle data")
		return
	}
	response.Success(c, gin.H{"vehicles": view})
}

// UpdateVehicles 更新车队数量
func (h *Handler) UpdateVehicles(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req VehicleCountsRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	vehicle, err := h.BusinessService.UpdateVehicles(userID, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, vehicleErrorRules, response.CodeInternal, "Server error while updating vehicle data")
		return
	}
	response.Success(c, gin.H{
		"message":  "Vehicles updated successfully",
		"vehicles": vehicle,
	})
}

// CompleteOnboarding 完成入驻
func (h *Handler) CompleteOnboarding(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.BusinessService.CompleteOnboarding(userID)
	if err != nil {
		respondWithMappedError(c, err, onboardingErrorRules, response.CodeInternal, "Server error while completing onboarding")
		return
	}
	response.Success(c, gin.H{
		"message": "Onboarding completed successfully",
		"user":    userSummaryPayload(user),
	})
}

// storeKYCDocument 优先使用 multipart 文件，其次使用 data URI 字符串；都没有时返回空
func (h *Handler) storeKYCDocument(c *gin.Context, field, dataURI, scene string) (string, error) {
	if file, err := c.FormFile(field); err == nil {
		return h.UploadService.SaveFile(file, scene)
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return "", err
	}
	dataURI = strings.TrimSpace(dataURI)
	if dataURI == "" {
		return "", nil
	}
	return h.UploadService.SaveBase64(dataURI, scene)
}

func overrideIfSet(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}

func overrideOptional(dst **string, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	v := value
	*dst = &v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

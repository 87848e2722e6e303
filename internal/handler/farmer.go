package handler

import (
	"net/http"

	"farm-to-keells/internal/farmer"
	"farm-to-keells/internal/utils"
)

type authResponse struct {
	Token  string         `json:"token"`
	Farmer *farmer.Farmer `json:"farmer,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) RegisterFarmer(w http.ResponseWriter, r *http.Request) {
	var in farmer.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	token, f, err := h.FarmerSvc.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, authResponse{Token: token, Farmer: f})
}

func (h *Handler) LoginFarmer(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	token, f, err := h.FarmerSvc.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, authResponse{Token: token, Farmer: f})
}

func (h *Handler) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	token, err := h.Admin.Login(in.Username, in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, authResponse{Token: token})
}

// BrowseFarmers lists farmers for the supermarket, filtered by ?district= and
// a name or email search ?q=.
func (h *Handler) BrowseFarmers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.FarmerSvc.Browse(r.Context(), farmer.District(q.Get("district")), q.Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := currentFarmer(w, r)
	if !ok {
		return
	}

	f, err := h.FarmerSvc.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := currentFarmer(w, r)
	if !ok {
		return
	}

	var u farmer.ProfileUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	// Avatars only change through the upload endpoint.
	u.AvatarURL = nil
	u.FullName = utils.TrimmedOrNil(u.FullName)
	u.Email = utils.TrimmedOrNil(u.Email)
	u.PhoneNumber = utils.TrimmedOrNil(u.PhoneNumber)
	u.Address = utils.TrimmedOrNil(u.Address)

	f, err := h.FarmerSvc.UpdateProfile(r.Context(), id, u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, f)
}

// UploadAvatar takes a multipart form with the image in the "avatar" field.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := currentFarmer(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 3<<20)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		utils.WriteJSONError(w, farmer.ErrInvalidImage.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	f, err := h.FarmerSvc.UploadAvatar(r.Context(), id, farmer.Avatar{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, f)
}

package domain

type Settings struct {
	// Valeurs par défaut des invitations.
	RoomNumber string `json:"roomNumber"`
	WechatLink string `json:"wechatLink"`

	// Après un push, relire le distant et réécrire le fichier local.
	RefreshAfterPush bool `json:"refreshAfterPush"`
}

func DefaultSettings() Settings {
	return Settings{
		RoomNumber:       "106",
		WechatLink:       "",
		RefreshAfterPush: true,
	}
}

package passkey

type Passkey struct {
	ID      int64  `gorm:"column:id;primaryKey"`
	Hash    string `gorm:"column:hash;not null"`
	Version int    `gorm:"column:version;not null;unique"`
}

func (Passkey) TableName() string {
	return "passkeys"
}

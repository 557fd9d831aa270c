// Package model はドメインモデルを定義する。
package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// jsonNull はJSONのnullリテラル。
var jsonNull = []byte("null")

// OptionalString はPATCHリクエストで「フィールド省略」と「明示的なnull」を
// 区別するための文字列型。
// 省略されたフィールドはSet=falseのまま残り、更新対象外となる。
// nullが指定された場合はSet=true, Valid=falseとなり、値をクリアする。
type OptionalString struct {
	Set   bool
	Valid bool
	Value string
}

// UnmarshalJSON はフィールドが存在した場合のみ呼び出される。
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, jsonNull) {
		o.Valid = false
		o.Value = ""
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// OptionalTime は日時フィールド版のOptionalString。
// 「省略なら据え置き、nullならクリア」の部分更新セマンティクスを実現する。
type OptionalTime struct {
	Set   bool
	Valid bool
	Value time.Time
}

// UnmarshalJSON はフィールドが存在した場合のみ呼び出される。
func (o *OptionalTime) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, jsonNull) {
		o.Valid = false
		o.Value = time.Time{}
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

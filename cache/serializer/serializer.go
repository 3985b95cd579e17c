// Package serializer 为缓存值提供可插拔的序列化实现。
package serializer

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ceyewan/fusebox/xerrors"
)

// ErrUnsupported 不支持的序列化器类型
var ErrUnsupported = xerrors.New("unsupported serializer type")

// Serializer 定义序列化接口
type Serializer interface {
	Marshal(value any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// New 创建序列化器
//
// 支持的序列化器类型:
//   - "json": 标准库 JSON 序列化，兼容性最好，便于人工排查缓存内容
//   - "msgpack": MessagePack 二进制序列化，体积更小，编解码更快
func New(name string) (Serializer, error) {
	switch name {
	case "json", "":
		return jsonSerializer{}, nil
	case "msgpack":
		return msgpackSerializer{}, nil
	default:
		return nil, xerrors.Wrapf(ErrUnsupported, "%q", name)
	}
}

type jsonSerializer struct{}

func (jsonSerializer) Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (jsonSerializer) Unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

type msgpackSerializer struct{}

func (msgpackSerializer) Marshal(value any) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (msgpackSerializer) Unmarshal(data []byte, dest any) error {
	return msgpack.Unmarshal(data, dest)
}

// Package mpath 物料树的物化路径编码
//
// 每一层使用固定宽度的 base36 段，路径按字节序排序即为先序遍历顺序，
// 子树查询只需前缀匹配。
package mpath

import (
	"errors"
	"strings"
)

const (
	// StepLen 每层路径段长度
	StepLen = 4
	// MaxLen 路径最大长度，与 assemblies.path 列宽一致
	MaxLen = 255
	// MaxDepth 可编码的最大层级
	MaxDepth = MaxLen / StepLen

	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	ErrInvalidPath = errors.New("invalid materialized path")
	ErrOverflow    = errors.New("materialized path segment overflow")
)

// maxSegment 单层最大序号 (36^StepLen - 1)
var maxSegment = func() int {
	n := 1
	for i := 0; i < StepLen; i++ {
		n *= len(alphabet)
	}
	return n - 1
}()

// Segment 将序号编码为固定宽度的路径段
func Segment(n int) (string, error) {
	if n < 0 || n > maxSegment {
		return "", ErrOverflow
	}
	buf := make([]byte, StepLen)
	for i := StepLen - 1; i >= 0; i-- {
		buf[i] = alphabet[n%len(alphabet)]
		n /= len(alphabet)
	}
	return string(buf), nil
}

// decodeSegment 解析路径段
func decodeSegment(seg string) (int, error) {
	if len(seg) != StepLen {
		return 0, ErrInvalidPath
	}
	n := 0
	for i := 0; i < len(seg); i++ {
		idx := strings.IndexByte(alphabet, seg[i])
		if idx < 0 {
			return 0, ErrInvalidPath
		}
		n = n*len(alphabet) + idx
	}
	return n, nil
}

// Depth 路径对应的层级（根为1）
func Depth(path string) int {
	return len(path) / StepLen
}

// Valid 路径长度是否合法
func Valid(path string) bool {
	return path != "" && len(path)%StepLen == 0
}

// Parent 父节点路径，根节点返回空串
func Parent(path string) string {
	if len(path) <= StepLen {
		return ""
	}
	return path[:len(path)-StepLen]
}

// First 给定父路径下的第一个子路径；父路径为空时返回第一个根路径
func First(parent string) string {
	seg, _ := Segment(1)
	return parent + seg
}

// Next 同级的下一个路径
func Next(path string) (string, error) {
	if !Valid(path) {
		return "", ErrInvalidPath
	}
	last := path[len(path)-StepLen:]
	n, err := decodeSegment(last)
	if err != nil {
		return "", err
	}
	seg, err := Segment(n + 1)
	if err != nil {
		return "", err
	}
	return path[:len(path)-StepLen] + seg, nil
}

// IsDescendant path 是否位于 root 子树内（含 root 自身）
func IsDescendant(path, root string) bool {
	return strings.HasPrefix(path, root)
}

package service

import "errors"

// errDryRunRollback 试运行时从事务函数返回，使 gorm 回滚全部写入
var errDryRunRollback = errors.New("dry run: rollback")

// ErrEmailDisabled 邮件通知未启用
var ErrEmailDisabled = errors.New("邮件服务未启用")

// finishTx 把试运行的回滚信号转换为正常返回
func finishTx(err error) error {
	if errors.Is(err, errDryRunRollback) {
		return nil
	}
	return err
}
